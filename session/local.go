package session

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"taxiye-driver-server/models"
	"taxiye-driver-server/utils"
)

// LocalProvider implements AuthAPI over the application's own credential
// store: bcrypt password hashes, JWT token pairs with Redis-parked refresh
// tokens, and a post-signup hook that materializes the Driver row from the
// identity metadata.
type LocalProvider struct {
	db *gorm.DB

	mu        sync.Mutex
	current   *Session
	listeners map[int]func(event string, s *Session)
	nextID    int
}

func NewLocalProvider(db *gorm.DB) *LocalProvider {
	return &LocalProvider{
		db:        db,
		listeners: map[int]func(event string, s *Session){},
	}
}

func (p *LocalProvider) SignInWithPassword(ctx context.Context, identifier, password string) (*Session, error) {
	var account models.AuthUser
	err := p.db.WithContext(ctx).Where("identifier = ?", strings.ToLower(identifier)).First(&account).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrBadLogin
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(password)) != nil {
		return nil, ErrBadLogin
	}

	sess, err := p.issueSession(&account)
	if err != nil {
		return nil, err
	}
	p.setSession(sess, EventSignedIn)
	return sess, nil
}

func (p *LocalProvider) SignUp(ctx context.Context, identifier, password string, metadata map[string]string) (*Session, error) {
	identifier = strings.ToLower(identifier)

	var existing models.AuthUser
	err := p.db.WithContext(ctx).Where("identifier = ?", identifier).First(&existing).Error
	if err == nil {
		return nil, ErrAccountExists
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	metaJSON, _ := json.Marshal(metadata)
	account := models.AuthUser{
		UserID:     uuid.NewString(),
		Identifier: identifier,
		Password:   string(hashed),
		Metadata:   datatypes.JSON(metaJSON),
		Role:       "driver",
	}
	if err := p.db.WithContext(ctx).Create(&account).Error; err != nil {
		return nil, err
	}

	// Post-signup hook: materialize the Driver row from identity metadata.
	// The driver starts in pending approval and gets unlocked by KYC.
	if metadata["user_type"] == "driver" && metadata["phone"] != "" {
		driver := models.Driver{
			Phone:          metadata["phone"],
			UserID:         account.UserID,
			Name:           metadata["name"],
			Email:          metadata["email"],
			ApprovedStatus: models.ApprovalPending,
		}
		if err := p.db.WithContext(ctx).Where("phone = ?", driver.Phone).FirstOrCreate(&driver).Error; err != nil {
			return nil, err
		}
	}

	sess, err := p.issueSession(&account)
	if err != nil {
		return nil, err
	}
	p.setSession(sess, EventSignedIn)
	return sess, nil
}

func (p *LocalProvider) ResetPasswordForEmail(ctx context.Context, identifier string) error {
	var account models.AuthUser
	err := p.db.WithContext(ctx).Where("identifier = ?", strings.ToLower(identifier)).First(&account).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrBadLogin
		}
		return err
	}

	token, err := utils.CreateForgotPasswordToken(account.ID, account.Identifier)
	if err != nil {
		return err
	}

	link := "taxiye://resetpassword/" + token
	html := `<p>It looks like you forgot your password. Click the link below
	within 10 minutes to reset it; if you did not request this, disregard
	this email. <a href=` + link + `>Click to Reset Password</a></p>`
	_, err = utils.SendMail(account.Identifier, "Forgot Your Password?", html)
	return err
}

func (p *LocalProvider) UpdatePassword(ctx context.Context, userID, newPassword string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return p.db.WithContext(ctx).Model(&models.AuthUser{}).
		Where("user_id = ?", userID).
		Update("password", string(hashed)).Error
}

func (p *LocalProvider) GetSession(ctx context.Context) (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil, nil
	}
	return p.current, nil
}

func (p *LocalProvider) OnAuthStateChange(fn func(event string, s *Session)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, id)
	}
}

func (p *LocalProvider) SignOut(ctx context.Context) error {
	p.setSession(nil, EventSignedOut)
	return nil
}

func (p *LocalProvider) issueSession(account *models.AuthUser) (*Session, error) {
	tokenPair, err := utils.CreateTokenPair(account.ID)
	if err != nil {
		return nil, err
	}

	metadata := map[string]string{}
	if account.Metadata != nil {
		_ = json.Unmarshal(account.Metadata, &metadata)
	}

	return &Session{
		User: &User{
			ID:         account.UserID,
			Identifier: account.Identifier,
			Metadata:   metadata,
		},
		AccessToken:  string(tokenPair.AccessToken),
		RefreshToken: string(tokenPair.RefreshToken),
	}, nil
}

func (p *LocalProvider) setSession(s *Session, event string) {
	p.mu.Lock()
	p.current = s
	fns := make([]func(string, *Session), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(event, s)
	}
}
