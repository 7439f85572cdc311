package badger

import "github.com/poiesic/questionbank/storage"

// NewMemoryRepositories creates an in-memory question repository for testing
// along with its backend. The caller must close the backend when done.
func NewMemoryRepositories() (storage.QuestionRepository, *Backend, error) {
	backend, err := OpenBackend("", true, nil)
	if err != nil {
		return nil, nil, err
	}

	repo, err := NewQuestionRepository(backend)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}

	return repo, backend, nil
}
