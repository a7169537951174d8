package config

// DockerfileName is the single file staged into the scratch build context.
const DockerfileName = "Dockerfile"

// DefaultImageTag is the fixed tag for the demonstration image. The tag is
// global in the local image store; two concurrent runs would race on it.
const DefaultImageTag = "github-different-repository-image:0.0.1"

// Build argument keys consumed by the project Dockerfile.
const (
	ArgInstallationMethod    = "AIRFLOW_INSTALLATION_METHOD"
	ArgConstraintsReference  = "AIRFLOW_CONSTRAINTS_REFERENCE"
	ArgConstraintsRepository = "CONSTRAINTS_GITHUB_REPOSITORY"
	ArgBaseImage             = "PYTHON_BASE_IMAGE"
)

// Default build argument values: install from an alternate GitHub repository,
// with constraints taken from the same fork.
const (
	DefaultInstallationMethod    = "https://github.com/potiuk/airflow/archive/main.tar.gz#egg=apache-airflow"
	DefaultConstraintsReference  = "constraints-main"
	DefaultConstraintsRepository = "potiuk/airflow"
	DefaultBaseImage             = "python:3.10-slim-bookworm"
)

// DefaultBuildArgs returns a fresh copy of the fixed build argument set.
func DefaultBuildArgs() map[string]string {
	return map[string]string{
		ArgInstallationMethod:    DefaultInstallationMethod,
		ArgConstraintsReference:  DefaultConstraintsReference,
		ArgConstraintsRepository: DefaultConstraintsRepository,
		ArgBaseImage:             DefaultBaseImage,
	}
}
