package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	id, identity string
	sendErr      error

	mu     sync.Mutex
	sent   []any
	closed bool
	code   int
}

func (f *fakeSession) ID() string       { return f.id }
func (f *fakeSession) Identity() string { return f.identity }
func (f *fakeSession) Send(_ context.Context, v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, v)
	return nil
}
func (f *fakeSession) Close(code int, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed, f.code = true, code
	return nil
}

func TestRegister_ReplacesAndReturnsPrevious(t *testing.T) {
	r := NewLocal(nil)
	s1 := &fakeSession{id: "1", identity: "x"}
	s2 := &fakeSession{id: "2", identity: "x"}

	assert.Nil(t, r.Register("x", s1))
	assert.Equal(t, s1, r.Register("x", s2))

	got, ok := r.Lookup("x")
	require.True(t, ok)
	assert.Same(t, s2, got)
	assert.Equal(t, 1, r.Len())
}

func TestRegister_SameSessionTwice(t *testing.T) {
	r := NewLocal(nil)
	s := &fakeSession{id: "1", identity: "x"}
	r.Register("x", s)
	assert.Nil(t, r.Register("x", s))
}

func TestDeregister_StaleReferenceKeepsNewer(t *testing.T) {
	r := NewLocal(nil)
	s1 := &fakeSession{id: "1", identity: "x"}
	s2 := &fakeSession{id: "2", identity: "x"}

	r.Register("x", s1)
	r.Register("x", s2)

	assert.False(t, r.Deregister("x", s1))
	got, ok := r.Lookup("x")
	require.True(t, ok)
	assert.Same(t, s2, got)

	assert.True(t, r.Deregister("x", s2))
	_, ok = r.Lookup("x")
	assert.False(t, ok)

	assert.False(t, r.Deregister("x", s2), "absent identity is a no-op")
}

func TestSend(t *testing.T) {
	var failed []string
	r := NewLocal(func(identity string, err error) { failed = append(failed, identity) })
	ok := &fakeSession{id: "1", identity: "bob"}
	broken := &fakeSession{id: "2", identity: "carol", sendErr: errors.New("broken pipe")}
	r.Register("bob", ok)
	r.Register("carol", broken)

	assert.True(t, r.Send(context.Background(), "bob", "hello"))
	assert.Equal(t, []any{"hello"}, ok.sent)

	assert.False(t, r.Send(context.Background(), "nobody", "hello"))

	assert.False(t, r.Send(context.Background(), "carol", "hello"))
	assert.Equal(t, []string{"carol"}, failed)
	_, still := r.Lookup("carol")
	assert.True(t, still, "failed send must not deregister")
}

func TestIdentitiesAndCloseAll(t *testing.T) {
	r := NewLocal(nil)
	a := &fakeSession{id: "1", identity: "b"}
	b := &fakeSession{id: "2", identity: "a"}
	r.Register("b", a)
	r.Register("a", b)

	assert.Equal(t, []string{"a", "b"}, r.Identities())

	r.CloseAll(1001, "going away")
	assert.True(t, a.closed)
	assert.Equal(t, 1001, b.code)
}

func TestConcurrentRegisterDeregister(t *testing.T) {
	r := NewLocal(nil)
	const identities, rounds = 8, 200

	var wg sync.WaitGroup
	for i := 0; i < identities; i++ {
		id := fmt.Sprintf("user%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				s := &fakeSession{id: fmt.Sprint(j), identity: id}
				r.Register(id, s)
				r.Send(context.Background(), id, j)
				r.Lookup(id)
				r.Deregister(id, s)
			}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				_ = r.Identities()
				_ = r.Len()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, r.Len())
}

func TestConcurrentReconnectRace(t *testing.T) {
	// a slow disconnect of an old session racing a fast reconnect must
	// never leave the identity unmapped
	for i := 0; i < 100; i++ {
		r := NewLocal(nil)
		old := &fakeSession{id: "old", identity: "x"}
		r.Register("x", old)

		fresh := &fakeSession{id: "new", identity: "x"}
		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); r.Deregister("x", old) }()
		go func() { defer wg.Done(); r.Register("x", fresh) }()
		wg.Wait()

		got, ok := r.Lookup("x")
		require.True(t, ok)
		require.Same(t, fresh, got)
	}
}
