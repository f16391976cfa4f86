package main

func Handle(captures []string, values map[string]any) (any, error) {
	return values["code"], nil
}
