package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"filippo.io/age"
)

// AgeContentType is the content type of encrypted artifacts.
const AgeContentType = "application/age-encrypted"

// AgeSink encrypts artifacts to age X25519 recipients before passing them on.
type AgeSink struct {
	next       Sink
	recipients []age.Recipient
}

// NewAgeSink parses recipients ("age1..." public keys) and wraps next.
func NewAgeSink(next Sink, recipients ...string) (*AgeSink, error) {
	if len(recipients) == 0 {
		return nil, fmt.Errorf("no age recipients given")
	}
	parsed, err := age.ParseRecipients(strings.NewReader(strings.Join(recipients, "\n")))
	if err != nil {
		return nil, fmt.Errorf("parsing age recipients: %w", err)
	}
	return &AgeSink{next: next, recipients: parsed}, nil
}

func (s *AgeSink) Deliver(ctx context.Context, a Artifact) error {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, s.recipients...)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := w.Write(a.Data); err != nil {
		return fmt.Errorf("encrypting %s: %w", a.Filename, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing encryption: %w", err)
	}
	return s.next.Deliver(ctx, Artifact{
		Filename:    a.Filename + ".age",
		ContentType: AgeContentType,
		Data:        buf.Bytes(),
	})
}
