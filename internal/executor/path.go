package executor

import "fmt"

// Path identifies a field's position in the response tree. Elements are
// response keys (string) and list indexes (int). Paths are append-by-copy, so
// a child's path never aliases its parent's backing array.
type Path []PathElement

type PathElement any

func appendPath(path Path, elem PathElement) Path {
	next := make(Path, len(path)+1)
	copy(next, path)
	next[len(path)] = elem
	return next
}

func pathToString(path Path) string {
	result := ""
	for i, elem := range path {
		switch v := elem.(type) {
		case string:
			if i > 0 {
				result += "."
			}
			result += v
		case int:
			result += fmt.Sprintf("[%d]", v)
		}
	}
	return result
}
