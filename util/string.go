package util

import (
	"fmt"
	"strings"
)

// JoinString renders each element of elems with String and joins them with sep
func JoinString[S fmt.Stringer](elems []S, sep string) string {
	strs := make([]string, len(elems))
	for i, elem := range elems {
		strs[i] = elem.String()
	}
	return strings.Join(strs, sep)
}

// JoinErrorsWith is JoinString for errors, with prefix written before each error
func JoinErrorsWith[E error](prefix string, errs []E, sep string) string {
	strs := make([]string, len(errs))
	for i, err := range errs {
		strs[i] = prefix + err.Error()
	}
	return strings.Join(strs, sep)
}
