package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"protoclient/internal/config"
	"protoclient/internal/httpclient"
	"protoclient/internal/logger"

	"github.com/dchest/uniuri"
	"github.com/spf13/cobra"
)

// generatedSaveName is the --save value when the flag is given without a path.
const generatedSaveName = "<generated>"

type httpOutputOptions struct {
	include bool
	json    bool
	save    string
}

func newHTTPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Send HTTP/1.1 requests over a raw TCP socket",
	}
	cmd.AddCommand(newHTTPNoBodyCmd(httpclient.MethodGet))
	cmd.AddCommand(newHTTPNoBodyCmd(httpclient.MethodDelete))
	cmd.AddCommand(newHTTPBodyCmd(httpclient.MethodPost))
	cmd.AddCommand(newHTTPBodyCmd(httpclient.MethodPut))
	return cmd
}

func newHTTPNoBodyCmd(method string) *cobra.Command {
	var opts httpOutputOptions

	cmd := &cobra.Command{
		Use:   strings.ToLower(method) + " <url>",
		Short: "Send a " + method + " request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHTTP(cmd, method, args[0], nil, opts)
		},
	}
	addHTTPOutputFlags(cmd, &opts)
	return cmd
}

func newHTTPBodyCmd(method string) *cobra.Command {
	var (
		opts     httpOutputOptions
		data     string
		dataFile string
	)

	cmd := &cobra.Command{
		Use:   strings.ToLower(method) + " <url>",
		Short: "Send a " + method + " request with a form-encoded body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := loadBody(data, dataFile)
			if err != nil {
				return err
			}
			return runHTTP(cmd, method, args[0], []byte(body), opts)
		},
	}
	addHTTPOutputFlags(cmd, &opts)
	cmd.Flags().StringVar(&data, "data", "", "Request body")
	cmd.Flags().StringVar(&dataFile, "data-file", "", "Read the request body from a file")
	return cmd
}

func addHTTPOutputFlags(cmd *cobra.Command, opts *httpOutputOptions) {
	cmd.Flags().BoolVarP(&opts.include, "include", "i", false, "Print status line and headers")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Pretty-print a JSON body")
	cmd.Flags().StringVar(&opts.save, "save", "", "Write the body to a file (--save=<path>, or a generated name)")
	cmd.Flags().Lookup("save").NoOptDefVal = generatedSaveName
}

func runHTTP(cmd *cobra.Command, method, rawURL string, body []byte, opts httpOutputOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := config.ValidateHTTP(cfg); err != nil {
		return err
	}

	client := httpclient.NewClient(cfg)
	resp, err := client.Do(cmd.Context(), method, rawURL, body)
	if err != nil {
		return err
	}
	logger.Info("http response", "method", method, "url", rawURL, "status", resp.StatusCode)

	out := cmd.OutOrStdout()
	if opts.include {
		printResponseHead(out, resp)
	}

	content := resp.Body
	if opts.json {
		if pretty, ok := prettyJSON(content); ok {
			content = pretty
		} else {
			logger.Warn("response body is not JSON", "content_type", resp.Headers.Get("Content-Type"))
		}
	}

	if opts.save != "" {
		path, err := saveBody(opts.save, resp.Headers, content)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Saved %d bytes to %s\n", len(content), path)
		return nil
	}

	_, err = io.WriteString(out, content)
	return err
}

func saveBody(target string, headers httpclient.Header, content string) (string, error) {
	if target == generatedSaveName {
		target = "response_" + uniuri.NewLen(10) + extensionFor(headers)
	}
	path, err := config.Expand(target)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("save body: %w", err)
	}
	return path, nil
}

// extensionFor picks a file extension from Content-Type, defaulting to .html.
func extensionFor(headers httpclient.Header) string {
	if !headers.Has("Content-Type") {
		return ".html"
	}
	contentType := strings.ToLower(headers.Get("Content-Type"))
	switch {
	case strings.Contains(contentType, "json"):
		return ".json"
	case strings.HasPrefix(contentType, "text/plain"):
		return ".txt"
	default:
		return ".html"
	}
}
