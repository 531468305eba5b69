package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"datemark/pkg/watermark"
)

type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// ask prints label and reads one line. A final line without a newline is
// accepted; io.EOF is returned only when nothing was read.
func (p *prompter) ask(label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// askOptional is ask for fields that may be left blank; end of input counts
// as blank.
func (p *prompter) askOptional(label string) (string, error) {
	s, err := p.ask(label)
	if errors.Is(err, io.EOF) {
		return "", nil
	}
	return s, err
}

// fillParams prompts for every watermark parameter not already set.
func (p *prompter) fillParams(in *watermark.Input) error {
	fields := []struct {
		dst   *string
		label string
	}{
		{&in.FontSize, "Font size (default 36): "},
		{&in.Color, "Color as R,G,B,A (default 255,255,255,128): "},
		{&in.Position, "Position as x,y (default bottom-right): "},
	}
	for _, f := range fields {
		if strings.TrimSpace(*f.dst) != "" {
			continue
		}
		v, err := p.askOptional(f.label)
		if err != nil {
			return err
		}
		*f.dst = v
	}
	return nil
}
