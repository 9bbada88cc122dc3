package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	calls    []string
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Register(ctx context.Context) error {
	f.calls = append(f.calls, "register")
	return nil
}
func (f *fakeExec) Login(ctx context.Context) error {
	f.calls = append(f.calls, "login")
	f.loggedIn = true
	return nil
}
func (f *fakeExec) Users(ctx context.Context) error {
	f.calls = append(f.calls, "users")
	return nil
}
func (f *fakeExec) History(ctx context.Context, with string) error {
	f.calls = append(f.calls, "history:"+with)
	return nil
}
func (f *fakeExec) Send(ctx context.Context, to, content string) error {
	f.calls = append(f.calls, "send:"+to+":"+content)
	return nil
}
func (f *fakeExec) Logout(ctx context.Context) error {
	f.calls = append(f.calls, "logout")
	f.loggedIn = false
	return nil
}

func silence(t *testing.T) *[]string {
	t.Helper()
	var printed []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		for _, v := range a {
			if s, ok := v.(string); ok {
				printed = append(printed, s)
			}
		}
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &printed
}

func TestRunREPL_Commands(t *testing.T) {
	silence(t)

	input := strings.NewReader(strings.Join([]string{
		"help",
		"register",
		"login",
		"users",
		"history bob",
		"send bob hello there",
		"@carol hi",
		"",
		"logout",
		"exit",
		"users",
	}, "\n"))

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "s" }, bufio.NewScanner(input))

	assert.Equal(t, []string{
		"register",
		"login",
		"users",
		"history:bob",
		"send:bob:hello there",
		"send:carol:hi",
		"logout",
	}, exec.calls)
}

func TestRunREPL_UsageAndUnknown(t *testing.T) {
	printed := silence(t)

	input := strings.NewReader("history\nsend bob\nsend\nfoobar\nquit\n")
	exec := &fakeExec{loggedIn: true}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewScanner(input))

	assert.Empty(t, exec.calls)
	assert.Contains(t, *printed, "Usage: history <user>")
	assert.Contains(t, *printed, "Usage: send <user> <text>")
	assert.Contains(t, *printed, "Unknown command:")
	assert.Contains(t, *printed, "Bye!")
}
