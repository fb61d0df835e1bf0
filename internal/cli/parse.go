package cli

import (
	"errors"
	"strconv"
	"strings"

	"github.com/benz9527/xbst/lib/infra"
)

var ErrInvalidInput = errors.New("[cli] invalid input")

// parseKeys splits a line by whitespace into integers.
// An empty line is valid and yields no keys.
func parseKeys(line string) ([]int, error) {
	fields := strings.Fields(line)
	keys := make([]int, 0, len(fields))
	for _, f := range fields {
		k, err := strconv.Atoi(f)
		if err != nil {
			return nil, infra.WrapErrorStackWithMessage(ErrInvalidInput, "not a number: "+strconv.Quote(f))
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// parseExact requires exactly n integers on the line.
func parseExact(line string, n int) ([]int, error) {
	keys, err := parseKeys(line)
	if err != nil {
		return nil, err
	}
	if len(keys) != n {
		return nil, infra.WrapErrorStackWithMessage(ErrInvalidInput,
			"expect "+strconv.Itoa(n)+" number(s), got "+strconv.Itoa(len(keys)))
	}
	return keys, nil
}
