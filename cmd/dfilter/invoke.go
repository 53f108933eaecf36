package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mimecast/dfilter/internal/event"
	"github.com/mimecast/dfilter/internal/pipeline"
	"github.com/mimecast/dfilter/internal/sink"
)

func newInvokeCmd(a *app) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "invoke EVENT_FILE",
		Short: "Run one saved object lambda event locally",
		Long: `Run one saved S3 object lambda event JSON file. The result is sent back
through WriteGetObjectResponse, or written to --output-dir as a file named
after the output route.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			req, err := event.Parse(data)
			if err != nil {
				return err
			}

			var p *pipeline.Pipeline
			if outputDir != "" {
				deps, err := a.deps()
				if err != nil {
					return err
				}
				deps.Fetcher = httpMux()
				deps.Sink = &sink.FileWriter{Dir: outputDir}
				p = pipeline.New(deps)
			} else if p, err = a.s3Pipeline(cmd.Context()); err != nil {
				return err
			}

			resp, err := p.Handle(cmd.Context(), req)
			if err != nil {
				return err
			}
			out, err := json.Marshal(resp)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Write the result into this directory instead of S3")
	return cmd
}
