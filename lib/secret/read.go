// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// ReadFile reads a credential from path, or the first line of stdin
// when path is "-". Surrounding whitespace is dropped. Every heap copy
// made while reading is zeroed before return.
func ReadFile(path string) (*Buffer, error) {
	if path == "-" {
		return readLine(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("secret: %w", err)
	}
	defer Zero(data)
	return fromTrimmed(data, path)
}

func readLine(reader io.Reader) (*Buffer, error) {
	scanner := bufio.NewScanner(reader)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("secret: reading stdin: %w", err)
		}
		return nil, errors.New("secret: stdin is empty")
	}
	line := scanner.Bytes()
	defer Zero(line)
	return fromTrimmed(line, "stdin")
}

func fromTrimmed(data []byte, source string) (*Buffer, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("secret: %s is empty", source)
	}
	return NewFromBytes(trimmed)
}
