package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// State шаг многоэтапного входа на стороне клиента.
type State int

const (
	Idle State = iota
	AwaitingPassword
	AwaitingCode
	Authenticated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingPassword:
		return "awaiting_password"
	case AwaitingCode:
		return "awaiting_code"
	case Authenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var ErrInvalidTransition = errors.New("invalid state transition")

// RequestError ответ сервера со статусом Error. Messages можно показывать пользователю.
type RequestError struct {
	StatusCode int
	Messages   []string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, strings.Join(e.Messages, "; "))
}

type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

type response struct {
	Status string   `json:"status"`
	Error  string   `json:"error,omitempty"`
	Errors []string `json:"errors,omitempty"`

	Exists       bool   `json:"exists"`
	Registration bool   `json:"registration"`
	CodeID       string `json:"code_id"`
	Match        bool   `json:"match"`
	Verified     bool   `json:"verified"`
	User         *User  `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Client проводит пользователя через этапы email, пароль, код.
// Данные, которые нужно вернуть серверу на этапе кода, хранятся здесь же.
type Client struct {
	baseURL string
	http    *http.Client

	mu           sync.Mutex
	state        State
	email        string
	password     string
	registration bool
	codeID       string
	user         User
	accessToken  string
	refreshToken string
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Registration сообщает, идет ли регистрация нового пользователя.
func (c *Client) Registration() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.registration
}

func (c *Client) User() User {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.user
}

func (c *Client) AccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.accessToken
}

// * SubmitEmail: Idle -> AwaitingPassword. Возвращает true, если email еще не зарегистрирован.
func (c *Client) SubmitEmail(ctx context.Context, email string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Idle {
		return false, c.invalid("SubmitEmail")
	}

	var out response
	if err := c.do(ctx, http.MethodGet, "/api/exists/"+url.PathEscape(email), nil, &out); err != nil {
		return false, err
	}

	c.email = email
	c.registration = !out.Exists
	c.state = AwaitingPassword

	return c.registration, nil
}

// * SubmitPassword: AwaitingPassword -> AwaitingCode. Сервер отправляет код на email.
// Для регистрации repeat должен совпадать с password, для входа игнорируется.
func (c *Client) SubmitPassword(ctx context.Context, password, repeat string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != AwaitingPassword {
		return c.invalid("SubmitPassword")
	}

	if err := c.beginVerification(ctx, password, repeat); err != nil {
		return err
	}

	c.password = password
	c.state = AwaitingCode

	return nil
}

// * Resend запрашивает новый код. Предыдущий код остается в хранилище до истечения TTL.
func (c *Client) Resend(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != AwaitingCode {
		return c.invalid("Resend")
	}

	repeat := ""
	if c.registration {
		repeat = c.password
	}

	return c.beginVerification(ctx, c.password, repeat)
}

// * SubmitCode: AwaitingCode -> Authenticated.
// Код одноразовый, поэтому после неудачи нужен Resend.
func (c *Client) SubmitCode(ctx context.Context, code int) (User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != AwaitingCode {
		return User{}, c.invalid("SubmitCode")
	}

	body := map[string]any{
		"code":         code,
		"code_id":      c.codeID,
		"email":        c.email,
		"password":     c.password,
		"registration": c.registration,
	}

	var out response
	if err := c.do(ctx, http.MethodPost, "/api/confirm", body, &out); err != nil {
		return User{}, err
	}

	c.authenticate(out)
	c.password = ""
	c.codeID = ""

	return c.user, nil
}

// * Refresh обновляет пару токенов. Если сервер не принял refresh токен, клиент возвращается в Idle.
func (c *Client) Refresh(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Authenticated {
		return false, c.invalid("Refresh")
	}

	var out response
	if err := c.do(ctx, http.MethodPost, "/api/refresh", map[string]string{"refresh_token": c.refreshToken}, &out); err != nil {
		return false, err
	}

	if !out.Verified {
		c.reset()
		return false, nil
	}

	c.authenticate(out)

	return true, nil
}

// * Logout: Authenticated -> Idle.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Authenticated {
		return c.invalid("Logout")
	}

	err := c.do(ctx, http.MethodPost, "/api/logout", map[string]string{"refresh_token": c.refreshToken}, nil)

	var reqErr *RequestError
	if err != nil && !(errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusUnauthorized) {
		return err
	}

	c.reset()

	return nil
}

// Reset возвращает клиента в Idle из любого состояния.
func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reset()
}

func (c *Client) beginVerification(ctx context.Context, password, repeat string) error {
	body := map[string]string{
		"email":    c.email,
		"password": password,
	}
	if repeat != "" {
		body["repeat_password"] = repeat
	}

	var out response
	if err := c.do(ctx, http.MethodPost, "/api/verification", body, &out); err != nil {
		return err
	}

	c.registration = out.Registration
	c.codeID = out.CodeID

	return nil
}

func (c *Client) authenticate(out response) {
	if out.User != nil {
		c.user = *out.User
	}
	c.accessToken = out.AccessToken
	c.refreshToken = out.RefreshToken
	c.state = Authenticated
}

func (c *Client) reset() {
	c.state = Idle
	c.email = ""
	c.password = ""
	c.registration = false
	c.codeID = ""
	c.user = User{}
	c.accessToken = ""
	c.refreshToken = ""
}

func (c *Client) invalid(transition string) error {
	return fmt.Errorf("%s from %s: %w", transition, c.state, ErrInvalidTransition)
}

func (c *Client) do(ctx context.Context, method, path string, in any, out *response) error {
	const op = "client.do"

	var body bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&body).Encode(in); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer res.Body.Close()

	var decoded response
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("%s: decode %s: %w", op, path, err)
	}

	if res.StatusCode >= http.StatusBadRequest || decoded.Status == "Error" {
		msgs := decoded.Errors
		if decoded.Error != "" {
			msgs = append(msgs, decoded.Error)
		}

		return &RequestError{StatusCode: res.StatusCode, Messages: msgs}
	}

	if out != nil {
		*out = decoded
	}

	return nil
}
