package handlers

import (
	"context"
	"fmt"
	"io"
	"sync"

	"storefront/payment"
	"storefront/utils"
)

type mockStorage struct {
	mu          sync.Mutex
	UploadFn    func(filename, contentType string, data []byte) (string, error)
	Uploaded    map[string][]byte
	DeleteCalls []string
}

func newMockStorage() *mockStorage {
	return &mockStorage{Uploaded: map[string][]byte{}}
}

func (m *mockStorage) UploadImage(_ context.Context, r io.Reader, filename, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if m.UploadFn != nil {
		return m.UploadFn(filename, contentType, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Uploaded[filename] = data
	return "https://storage.googleapis.com/test-bucket/products/" + filename, nil
}

func (m *mockStorage) DeleteFile(_ context.Context, url string) error {
	if _, err := utils.ExtractObjectPath(url); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls = append(m.DeleteCalls, url)
	return nil
}

// mockProcessor keeps intents in memory. Intents are created as succeeded
// unless Status says otherwise.
type mockProcessor struct {
	mu        sync.Mutex
	intents   map[string]*payment.Intent
	Status    string
	CreateErr error
	next      int
}

func newMockProcessor() *mockProcessor {
	return &mockProcessor{intents: map[string]*payment.Intent{}, Status: payment.StatusSucceeded}
}

func (m *mockProcessor) CreateIntent(_ context.Context, amountMinor int64, currency string, _ map[string]string) (*payment.Intent, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	id := fmt.Sprintf("pi_test_%08d", m.next)
	intent := &payment.Intent{
		ID:           id,
		ClientSecret: id + "_secret_x",
		Amount:       amountMinor,
		Currency:     currency,
		Status:       m.Status,
	}
	m.intents[id] = intent
	return intent, nil
}

func (m *mockProcessor) GetIntent(_ context.Context, id string) (*payment.Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	intent, ok := m.intents[id]
	if !ok {
		return nil, &payment.Error{Kind: payment.ErrPaymentDeclined, Message: "No such payment_intent: " + id}
	}
	return intent, nil
}

// put registers an intent directly, as if the customer had already paid.
func (m *mockProcessor) put(id string, amountMinor int64, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intents[id] = &payment.Intent{ID: id, Amount: amountMinor, Currency: "usd", Status: status}
}
