package model

// URLTask is a single URL submitted to a scan.
// Ordinal is the zero-based index of the URL in the input sequence. It is
// used for progress reporting and stable output ordering only; it does not
// constrain when the task completes.
type URLTask struct {
	// Ordinal is the position of the URL in the input sequence.
	Ordinal int `json:"ordinal"`

	// URL is the URL exactly as it appeared in the input.
	URL string `json:"url"`
}

// NewTasks converts an ordered URL sequence into tasks.
// Duplicate URLs are kept; each occurrence becomes its own task.
func NewTasks(urls []string) []URLTask {
	tasks := make([]URLTask, len(urls))
	for i, u := range urls {
		tasks[i] = URLTask{Ordinal: i, URL: u}
	}
	return tasks
}
