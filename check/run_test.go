package check

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"markfmt/config"
	"markfmt/state"
)

func setupTestEnv(t *testing.T) (context.Context, *state.LocalEnv) {
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)
	env.Log = logger
	env.Cfg = cfg
	return ctx, env
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:   "check",
		Flags:  []cli.Flag{&cli.StringFlag{Name: "force-zip-cp"}},
		Action: Run,
	}
}

func TestDocument(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"normalized", "<div><p>a <b>b</b> <i>c<b>d</b></i></p></div>", false},
		{"nested mark", "<div><b>a<i><b>b</b></i></b></div>", true},
		{"nested under label", "<div><s>a<label><s>b</s></label></s></div>", true},
		{"same tag not a mark", "<div><p><p>a</p></p></div>", false},
		{"not xml", "plain", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, env := setupTestEnv(t)
			err := document(ctx, strings.NewReader(tt.input), "test.xml", env.Log)
			if (err != nil) != tt.wantErr {
				t.Errorf("document() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good")
	if err := os.MkdirAll(good, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(good, "a.xml"), []byte("<div><b>a</b></div>"), 0644); err != nil {
		t.Fatal(err)
	}

	arc := filepath.Join(dir, "mixed.zip")
	f, err := os.Create(arc)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, content := range map[string]string{
		"ok/one.xml":  "<div>one</div>",
		"bad/two.xml": "<div><u><u>two</u></u></div>",
	} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	tests := []struct {
		name    string
		src     string
		wantErr error
	}{
		{"directory", good, nil},
		{"good part of archive", filepath.Join(arc, "ok"), nil},
		{"whole archive", arc, ErrViolations},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := setupTestEnv(t)
			err := newCommand().Run(ctx, []string{"check", "--force-zip-cp", "cp866", tt.src})
			if tt.wantErr == nil && err != nil {
				t.Errorf("Run() error = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Run() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("no source", func(t *testing.T) {
		ctx, _ := setupTestEnv(t)
		if err := newCommand().Run(ctx, []string{"check"}); err == nil {
			t.Error("Run() expected error without source")
		}
	})
}
