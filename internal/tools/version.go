package tools

import (
	"context"

	"github.com/clborne/toolgate/internal/config"
	"github.com/clborne/toolgate/internal/registry"
)

// VersionInfo is the structured result of the get_version tool.
type VersionInfo struct {
	Version string `json:"version"`
	Build   string `json:"build"`
	Commit  string `json:"commit"`
}

// Version reports server version and build info. Use it to verify
// connectivity.
func Version(ctx context.Context) (VersionInfo, error) {
	return VersionInfo{
		Version: config.Version,
		Build:   config.Build,
		Commit:  config.GitCommit,
	}, nil
}

// Register wires all built-in tools into the registry.
func Register(reg *registry.Registry) error {
	if err := reg.Add(Echo,
		registry.WithName("echo"),
		registry.WithDescription("Echoes the input text"),
	); err != nil {
		return err
	}
	if err := reg.Add(DynamicEcho{}); err != nil {
		return err
	}
	return reg.Add(Version,
		registry.WithName("get_version"),
		registry.WithDescription("Get the toolgate server version and status. Use this to verify connectivity."),
	)
}
