package archive

import "fmt"

// ErrBadPattern indicates a malformed glob pattern.
var ErrBadPattern = fmt.Errorf("syntax error in glob pattern")

// Match reports whether name matches the shell glob pattern. Supported
// syntax: '*' matches any run of characters including '/', '?' matches
// exactly one character, '[...]' matches a character class with ranges and
// '^' or '!' negation. Matching is case-sensitive and applies to the full
// in-archive relative path. '*' crossing '/' keeps Extract("*") equivalent
// to extracting everything, nested entries included.
func Match(pattern, name string) (bool, error) {
	if err := validatePattern(pattern); err != nil {
		return false, err
	}

	px, nx := 0, 0
	starPx, starNx := -1, -1

	for nx < len(name) {
		if px < len(pattern) {
			switch c := pattern[px]; c {
			case '*':
				starPx, starNx = px, nx
				px++
				continue
			case '?':
				px++
				nx++
				continue
			case '[':
				ok, next, err := matchClass(pattern, px+1, name[nx])
				if err != nil {
					return false, err
				}
				if ok {
					px = next
					nx++
					continue
				}
			default:
				if c == name[nx] {
					px++
					nx++
					continue
				}
			}
		}
		// Mismatch: retry from the last '*', consuming one more character.
		if starPx >= 0 {
			starNx++
			nx = starNx
			px = starPx + 1
			continue
		}
		return false, nil
	}

	// Only trailing stars may remain in the pattern.
	for px < len(pattern) && pattern[px] == '*' {
		px++
	}
	return px == len(pattern), nil
}

// validatePattern scans the whole pattern so syntax errors surface even when
// matching would fail before reaching the malformed part.
func validatePattern(pattern string) error {
	for i := 0; i < len(pattern); i++ {
		if pattern[i] == '[' {
			_, next, err := matchClass(pattern, i+1, 0)
			if err != nil {
				return err
			}
			i = next - 1
		}
	}
	return nil
}

// matchClass matches ch against the class starting at pattern[i] (just past
// the '['). It returns whether ch matched and the index just past the
// closing ']'.
func matchClass(pattern string, i int, ch byte) (bool, int, error) {
	negate := false
	if i < len(pattern) && (pattern[i] == '^' || pattern[i] == '!') {
		negate = true
		i++
	}

	matched := false
	first := true
	for {
		if i >= len(pattern) {
			return false, 0, fmt.Errorf("%w: missing ]", ErrBadPattern)
		}
		if pattern[i] == ']' && !first {
			break
		}
		first = false

		lo := pattern[i]
		hi := lo
		if i+2 < len(pattern) && pattern[i+1] == '-' && pattern[i+2] != ']' {
			hi = pattern[i+2]
			i += 2
		}
		if lo > hi {
			return false, 0, fmt.Errorf("%w: inverted range", ErrBadPattern)
		}
		if ch >= lo && ch <= hi {
			matched = true
		}
		i++
	}

	return matched != negate, i + 1, nil
}
