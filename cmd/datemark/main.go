package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"

	"datemark/pkg/config"
	"datemark/pkg/exifdate"
	"datemark/pkg/logger"
	"datemark/pkg/watermark"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.Load(args, stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(stderr, "invalid --log-level:", err)
		return 2
	}
	defer log.Sync()

	prompt := newPrompter(stdin, stdout)

	path := strings.TrimSpace(cfg.Input)
	if path == "" {
		path, err = prompt.ask("Image file path: ")
		if err != nil {
			fmt.Fprintln(stderr, "error: no image path given")
			return 2
		}
		path = strings.TrimSpace(path)
	}
	if err := watermark.CheckInput(path); err != nil {
		fmt.Fprintln(stderr, "error: file does not exist or is not a regular file:", path)
		return 2
	}

	in := watermark.Input{FontSize: cfg.FontSize, Color: cfg.Color, Position: cfg.Position}
	if cfg.Custom {
		if err := prompt.fillParams(&in); err != nil {
			fmt.Fprintln(stderr, "error: reading parameters:", err)
			return 2
		}
	}
	wmCfg := watermark.ParseConfig(in, log)

	p := watermark.NewPipeline(exifdate.NewExtractor(log), watermark.NewRenderer(cfg.FontPath, log), log)
	p.Write = watermark.WriteOptions{JPEGQuality: cfg.JPEGQuality}
	p.AutoOrient = cfg.AutoOrient

	res, err := p.Run(path, wmCfg)
	if err != nil {
		msg, known := describe(err)
		fmt.Fprintln(stderr, msg)
		if !known {
			log.Error("watermarking failed", zap.String("path", path), zap.Error(err))
		}
		if errors.Is(err, watermark.ErrInput) {
			return 2
		}
		return 1
	}

	fmt.Fprintln(stdout, "watermarked image saved to:", res.Target.Path())
	return 0
}

// describe turns a run error into the message shown to the user. known is
// false for failures outside the watermark error classes.
func describe(err error) (msg string, known bool) {
	switch {
	case errors.Is(err, watermark.ErrInput):
		return fmt.Sprintf("error: %v", err), true
	case errors.Is(err, watermark.ErrMetadataRead):
		return fmt.Sprintf("error reading image metadata: %v", err), true
	case errors.Is(err, watermark.ErrDecode):
		return fmt.Sprintf("error: cannot read image, make sure it is a supported format: %v", err), true
	case errors.Is(err, watermark.ErrEncode):
		return fmt.Sprintf("error encoding output image: %v", err), true
	case errors.Is(err, watermark.ErrWrite):
		return fmt.Sprintf("I/O error writing output: %v", err), true
	}
	return fmt.Sprintf("unknown error: %v", err), false
}
