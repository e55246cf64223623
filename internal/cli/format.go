package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"protoclient/internal/email"
	"protoclient/internal/httpclient"
	"protoclient/internal/pop3"

	jsoniter "github.com/json-iterator/go"
)

func printMessages(out io.Writer, messages []pop3.MessageInfo) {
	tw := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "NUMBER\tSIZE")
	for _, msg := range messages {
		fmt.Fprintf(tw, "%d\t%d\n", msg.Number, msg.Size)
	}
	_ = tw.Flush()
}

func printResponseHead(out io.Writer, resp *httpclient.Response) {
	fmt.Fprintf(out, "%d %s\n", resp.StatusCode, resp.StatusMessage)
	for _, name := range resp.Headers.Keys() {
		for _, value := range resp.Headers.Values(name) {
			fmt.Fprintf(out, "%s: %s\n", name, value)
		}
	}
	fmt.Fprintln(out)
}

// prettyJSON re-indents body. ok is false when body is not JSON.
// jsoniter's MarshalIndent misplaces nested indentation for untyped values,
// so the validated input is re-indented with encoding/json.
func prettyJSON(body string) (string, bool) {
	src := []byte(strings.TrimSpace(body))
	if !jsoniter.ConfigCompatibleWithStandardLibrary.Valid(src) {
		return "", false
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, src, "", "  "); err != nil {
		return "", false
	}
	buf.WriteByte('\n')
	return buf.String(), true
}

func printMessage(out io.Writer, n int, msg *email.Message) {
	fmt.Fprintf(out, "Message: %d\n", n)
	if msg.Subject != "" {
		fmt.Fprintf(out, "Subject: %s\n", msg.Subject)
	}
	if msg.From != "" {
		fmt.Fprintf(out, "From: %s\n", msg.From)
	}
	if len(msg.To) > 0 {
		fmt.Fprintf(out, "To: %s\n", strings.Join(msg.To, ", "))
	}
	if len(msg.Cc) > 0 {
		fmt.Fprintf(out, "Cc: %s\n", strings.Join(msg.Cc, ", "))
	}
	if !msg.Date.IsZero() {
		fmt.Fprintf(out, "Date: %s\n", msg.Date.Format("2006-01-02 15:04:05 -0700"))
	}
	if len(msg.Attachments) > 0 {
		fmt.Fprintf(out, "Attachments: %s\n", strings.Join(msg.Attachments, ", "))
	}
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, msg.ReadableBody())
}
