package main

import "fmt"

func Handle(captures []string, values map[string]any) (any, error) {
	if len(captures) == 0 {
		return "hello, stranger", nil
	}
	return fmt.Sprintf("hello, %s", captures[0]), nil
}
