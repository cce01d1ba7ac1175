package task

import (
	"encoding/json"
	"fmt"
)

// Encode serializes the full task list to the persistence format: a JSON
// array of tasks with dates written as YYYY-MM-DD strings.
func Encode(tasks []Task) ([]byte, error) {
	if tasks == nil {
		tasks = []Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("encode tasks: %w", err)
	}
	return data, nil
}

// Decode parses the persistence format back into tasks, reconstructing due
// dates from their string form. A JSON null decodes to an empty list.
func Decode(data []byte) ([]Task, error) {
	var tasks []Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return tasks, nil
}
