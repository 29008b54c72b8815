package main

import (
	"fmt"

	"github.com/example/go-onnx-session/internal/doctor"
	"github.com/example/go-onnx-session/internal/session"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor [model...]",
		Short: "Check the local environment for inference prerequisites",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := doctor.Config{
				DetectRuntime: func() (string, string, error) {
					info, err := session.DetectRuntime(activeCfg.Runtime.ORTLibraryPath)
					if err != nil {
						return "", "", err
					}
					version := info.Version
					if activeCfg.Runtime.ORTVersion != "" {
						version = activeCfg.Runtime.ORTVersion
					}
					return info.LibraryPath, version, nil
				},
				ModelFiles: args,
			}

			res := doctor.Run(cfg, cmd.OutOrStdout())
			if res.Failed() {
				return fmt.Errorf("doctor found %d problem(s)", len(res.Failures()))
			}

			return nil
		},
	}

	return cmd
}
