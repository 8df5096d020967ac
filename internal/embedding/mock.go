package embedding

import "context"

// MockEmbedder returns canned vectors for tests without network access.
type MockEmbedder struct {
	Vector []float32
	Err    error
	Calls  []string
}

func (m *MockEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	m.Calls = append(m.Calls, text)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Vector != nil {
		return m.Vector, nil
	}
	return []float32{0.1, 0.2, 0.3}, nil
}
