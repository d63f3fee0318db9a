package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gemini-terminal/internal/logging"
	"gemini-terminal/internal/markup"
	"gemini-terminal/internal/session"
)

// Reply formats for -ask
const (
	formatText     = "text"
	formatHTML     = "html"
	formatMarkdown = "markdown"
)

func validateFormat(format string) error {
	switch format {
	case formatText, formatHTML, formatMarkdown:
		return nil
	}
	return fmt.Errorf("unknown format %q (want text, html or markdown)", format)
}

// formatReply renders content for stdout
func formatReply(content, format string) string {
	switch format {
	case formatHTML:
		return markup.Format(content)
	case formatMarkdown:
		return content
	default:
		return markup.Render(content, markup.DefaultStyles())
	}
}

// runOneShot sends a single message and prints the reply. Failure details
// go to the log only.
func runOneShot(ctx context.Context, sess *session.Session, text, format string, w io.Writer) error {
	reply, err := sess.Send(ctx, text)
	switch {
	case err == nil:
	case errors.Is(err, session.ErrEmptyInput):
		return errors.New("message is empty")
	case errors.Is(err, session.ErrMissingAPIKey):
		return errors.New("no API key configured; start gemini-terminal without -ask and open Settings")
	default:
		logging.Error("One-shot request failed: %v", err)
		return errors.New("failed to send message, please check your API key and try again")
	}

	_, err = fmt.Fprintln(w, formatReply(reply.Content, format))
	return err
}
