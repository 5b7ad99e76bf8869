package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	hostPrompt    = "Input ip/name of the host you want: "
	countPrompt   = "How many times you want to detect: "
	timeoutPrompt = "Input timeout: "
)

var errInvalidInput = errors.New("invalid input")

// prompter asks questions on out and reads the answers from in, one per line.
type prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{scanner: bufio.NewScanner(in), out: out}
}

// ask returns the trimmed answer to question, io.EOF when there is nothing left to read.
func (p *prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)

	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

// askInt is ask for an integer answer.
func (p *prompter) askInt(question string) (int, error) {
	answer, err := p.ask(question)
	if err != nil {
		return 0, err
	}

	n, err := strconv.Atoi(answer)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", errInvalidInput, answer)
	}
	return n, nil
}

// askHost is ask for a non empty answer.
func (p *prompter) askHost() (string, error) {
	host, err := p.ask(hostPrompt)
	if err != nil {
		return "", err
	}
	if host == "" {
		return "", fmt.Errorf("%w: empty host", errInvalidInput)
	}
	return host, nil
}
