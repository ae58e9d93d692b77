package user

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/9ssi7/nanoid"
	"github.com/gorilla/securecookie"

	"relocate/internal/config"
)

// CapManageOptions - право менять настройки сайта, необходимое для переноса.
const CapManageOptions = "manage_options"

const sessionTTL = 12 * time.Hour

var (
	// ErrNotLoggedIn - в запросе нет действующей сессии.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrBadCredentials - неизвестный пользователь или неверный токен.
	ErrBadCredentials = errors.New("bad credentials")
)

// Session - данные сессии, хранящиеся в подписанной и зашифрованной куке.
type Session struct {
	ID           string
	User         string
	Capabilities []string
	Expires      time.Time
}

// Can сообщает, есть ли у пользователя сессии указанное право.
func (s Session) Can(capability string) bool {
	return slices.Contains(s.Capabilities, capability)
}

//go:generate mockgen -source=user.go -destination=../mocks/mock_user.go -package=mocks

// UserService - интерфейс для входа, выхода и чтения сессии из куки.
type UserService interface {
	// Login проверяет токен пользователя и открывает новую сессию.
	Login(name, token string) (Session, error)
	// Logout закрывает сессию и удаляет куку.
	Logout(res http.ResponseWriter, req *http.Request)
	// GetSession возвращает действующую сессию из куки запроса.
	GetSession(req *http.Request) (Session, error)
	// SetSessionCookie устанавливает куку с сессией.
	SetSessionCookie(res http.ResponseWriter, s Session) error
}

// user реализует UserService поверх securecookie.
type user struct {
	accounts   []config.Account
	cookieName string
	cookie     *securecookie.SecureCookie
	sessions   map[string]time.Time
	now        func() time.Time
	mu         sync.Mutex
}

// newSecurecookie создаёт экземпляр securecookie. Пустые ключи заменяются
// случайными, и сессии не переживают перезапуск.
func newSecurecookie(hashKey, blockKey string) *securecookie.SecureCookie {
	hk, bk := []byte(hashKey), []byte(blockKey)
	if len(hk) == 0 {
		hk = securecookie.GenerateRandomKey(32) //nolint:mnd // HMAC-SHA256 key size
	}
	if len(bk) == 0 {
		bk = securecookie.GenerateRandomKey(32) //nolint:mnd // AES-256 key size
	}
	return securecookie.New(hk, bk)
}

// NewUserService создаёт и возвращает новый экземпляр сервиса UserService.
func NewUserService(c *config.Config) UserService {
	return &user{
		accounts:   c.AllAccounts(),
		cookieName: "AuthToken",
		cookie:     newSecurecookie(c.CookieHashKey, c.CookieBlockKey),
		sessions:   make(map[string]time.Time),
		now:        time.Now,
	}
}

// Login ищет учётную запись и сравнивает токен за постоянное время.
func (u *user) Login(name, token string) (Session, error) {
	for _, a := range u.accounts {
		if a.Name != name || a.Token == "" {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(a.Token), []byte(token)) != 1 {
			break
		}

		id, err := nanoid.New()
		if err != nil {
			return Session{}, err
		}
		s := Session{
			ID:           id,
			User:         a.Name,
			Capabilities: append([]string(nil), a.Capabilities...),
			Expires:      u.now().Add(sessionTTL),
		}

		u.mu.Lock()
		u.sessions[id] = s.Expires
		u.mu.Unlock()
		return s, nil
	}
	return Session{}, ErrBadCredentials
}

// Logout удаляет сессию на сервере и просит браузер забыть куку.
func (u *user) Logout(res http.ResponseWriter, req *http.Request) {
	if s, err := u.GetSession(req); err == nil {
		u.mu.Lock()
		delete(u.sessions, s.ID)
		u.mu.Unlock()
	}
	http.SetCookie(res, &http.Cookie{
		Name:     u.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// GetSession возвращает сессию из HTTP-запроса.
func (u *user) GetSession(req *http.Request) (Session, error) {
	cookie, err := req.Cookie(u.cookieName)
	if err != nil {
		return Session{}, ErrNotLoggedIn
	}

	var s Session
	if err := u.cookie.Decode(u.cookieName, cookie.Value, &s); err != nil {
		return Session{}, ErrNotLoggedIn
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	expires, ok := u.sessions[s.ID]
	if !ok {
		return Session{}, ErrNotLoggedIn
	}
	if u.now().After(expires) {
		delete(u.sessions, s.ID)
		return Session{}, ErrNotLoggedIn
	}
	return s, nil
}

// SetSessionCookie устанавливает HTTP-куку с сессией.
func (u *user) SetSessionCookie(res http.ResponseWriter, s Session) error {
	encoded, err := u.cookie.Encode(u.cookieName, s)
	if err != nil {
		return err
	}

	http.SetCookie(res, &http.Cookie{
		Name:     u.cookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  s.Expires,
	})
	return nil
}
