package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filippo.io/age"

	"github.com/Tiliavir/trivial-timesheet/internal/export"
)

func TestSinkChainReportsWrittenFile(t *testing.T) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		t.Fatal(err)
	}
	art := export.Artifact{
		Filename:    "timesheet-detailed-all-2024-01-15-to-2024-01-21.csv",
		ContentType: export.FormatCSV.ContentType(),
		Data:        []byte("Date,User\n"),
	}

	tests := []struct {
		name       string
		recipients []string
		want       string
	}{
		{"plain", nil, art.Filename},
		{"encrypted", []string{identity.Recipient().String()}, art.Filename + ".age"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			sink, written, err := sinkChain(export.DirSink{Dir: dir}, tt.recipients)
			if err != nil {
				t.Fatalf("sinkChain: %v", err)
			}
			if err := sink.Deliver(context.Background(), art); err != nil {
				t.Fatalf("Deliver: %v", err)
			}
			if written.Filename != tt.want {
				t.Errorf("written.Filename = %q, want %q", written.Filename, tt.want)
			}
			info, err := os.Stat(filepath.Join(dir, written.Filename))
			if err != nil {
				t.Fatalf("reported file was not written: %v", err)
			}
			if info.Size() != int64(len(written.Data)) {
				t.Errorf("file size %d, reported %d bytes", info.Size(), len(written.Data))
			}
		})
	}
}

func TestSinkChainRejectsBadRecipient(t *testing.T) {
	_, _, err := sinkChain(export.DirSink{Dir: t.TempDir()}, []string{"not-a-key"})
	if err == nil || !strings.Contains(err.Error(), "age recipients") {
		t.Errorf("sinkChain(bad recipient) error = %v", err)
	}
}
