// Package cli is an interactive terminal client for the ChatBook server.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/chatbook/internal/client/api"
	"github.com/dmitrijs2005/chatbook/internal/client/config"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// chatAPI is the part of api.Client the App uses.
type chatAPI interface {
	User() string
	LoggedIn() bool
	Register(ctx context.Context, user, password string) error
	Login(ctx context.Context, user, password string) error
	Logout(ctx context.Context) error
	Users(ctx context.Context) ([]string, error)
	History(ctx context.Context, other string) ([]api.Message, error)
	Connect(ctx context.Context) (*api.Conn, error)
	Ping(ctx context.Context) error
	Close() error
}

type App struct {
	config *config.Config
	client chatAPI
	reader *bufio.Reader
	out    io.Writer

	mu   sync.Mutex
	conn *api.Conn
	mode Mode
}

func NewApp(c *config.Config) *App {
	return &App{
		config: c,
		client: api.NewClient(c.ServerURL, c.HealthAddr),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

func (a *App) Run(ctx context.Context) {
	defer a.client.Close()
	defer a.disconnect()

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	log.Println("Welcome to ChatBook CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
}

func (a *App) isLoggedIn() bool {
	return a.client.LoggedIn()
}

func (a *App) getStatus() string {
	a.mu.Lock()
	mode := a.mode
	a.mu.Unlock()

	s := a.client.User()
	if mode != "" {
		if s != "" {
			s += " "
		}
		s += string(mode)
	}
	if s != "" {
		s = "(" + s + ")"
	}
	return s
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode != mode {
		a.mode = mode
		log.Printf("Switched to %s mode\n", mode)
	}
}

// StartOnlineStatusWatcher probes the server health endpoint every interval.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := a.client.Ping(pctx)
			cancel()
			if err != nil {
				a.setMode(ModeOffline)
			} else {
				a.setMode(ModeOnline)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) Register(ctx context.Context) error {
	user, err := GetSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	if err := a.client.Register(ctx, user, password); err != nil {
		fmt.Fprintf(a.out, "Registration failed: %v\n", err)
		return err
	}
	fmt.Fprintln(a.out, "Success!")
	return nil
}

// Login authenticates and opens the chat socket. Incoming messages are
// printed as they arrive.
func (a *App) Login(ctx context.Context) error {
	user, err := GetSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	if err := a.client.Login(ctx, user, password); err != nil {
		fmt.Fprintf(a.out, "Login unsuccessful: %v\n", err)
		return err
	}

	conn, err := a.client.Connect(ctx)
	if err != nil {
		fmt.Fprintf(a.out, "Could not open chat session: %v\n", err)
		return err
	}
	a.mu.Lock()
	a.conn = conn
	a.mu.Unlock()

	go a.receive(conn)
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

func (a *App) receive(conn *api.Conn) {
	for {
		e, err := conn.Receive()
		if err != nil {
			return
		}
		fmt.Fprintln(a.out, formatEnvelope(e))
	}
}

func formatEnvelope(e *api.Envelope) string {
	ts := e.Timestamp.Local().Format(time.TimeOnly)
	switch {
	case e.Error != "":
		return "! " + e.Error
	case e.From != "":
		return fmt.Sprintf("[%s] %s: %s", ts, e.From, e.Content)
	default:
		return fmt.Sprintf("[%s] -> %s: %s (#%d %s)", ts, e.To, e.Content, e.ID, e.Status)
	}
}

func (a *App) Users(ctx context.Context) error {
	users, err := a.client.Users(ctx)
	if err != nil {
		fmt.Fprintf(a.out, "Error: %v\n", err)
		return err
	}
	for _, u := range users {
		fmt.Fprintln(a.out, u)
	}
	return nil
}

func (a *App) History(ctx context.Context, with string) error {
	msgs, err := a.client.History(ctx, with)
	if err != nil {
		fmt.Fprintf(a.out, "Error: %v\n", err)
		return err
	}
	if len(msgs) == 0 {
		fmt.Fprintln(a.out, "No messages")
	}
	for _, m := range msgs {
		fmt.Fprintf(a.out, "[%s] %s -> %s: %s\n", m.Timestamp.Local().Format(time.DateTime), m.From, m.To, m.Content)
	}
	return nil
}

var errNotConnected = errors.New("not connected, please log in")

func (a *App) Send(ctx context.Context, to, content string) error {
	a.mu.Lock()
	conn := a.conn
	a.mu.Unlock()
	if conn == nil {
		fmt.Fprintln(a.out, errNotConnected)
		return errNotConnected
	}
	if err := conn.Send(to, content); err != nil {
		fmt.Fprintf(a.out, "Send failed: %v\n", err)
		return err
	}
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.disconnect()
	return a.client.Logout(ctx)
}

func (a *App) disconnect() {
	a.mu.Lock()
	conn := a.conn
	a.conn = nil
	a.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}
