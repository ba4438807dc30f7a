package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuthAPI struct {
	signUpIdentifier string
	signUpMetadata   map[string]string
	signInIdentifier string
	signUpErr        error
	signInErr        error

	getSession      func(ctx context.Context) (*Session, error)
	listeners       []func(event string, s *Session)
	signedOut       bool
	passwordResets  []string
	updatedPassword string
}

func (f *fakeAuthAPI) SignInWithPassword(ctx context.Context, identifier, password string) (*Session, error) {
	f.signInIdentifier = identifier
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return &Session{User: &User{ID: "u1", Identifier: identifier}}, nil
}

func (f *fakeAuthAPI) SignUp(ctx context.Context, identifier, password string, metadata map[string]string) (*Session, error) {
	f.signUpIdentifier = identifier
	f.signUpMetadata = metadata
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	return &Session{User: &User{ID: "u1", Identifier: identifier, Metadata: metadata}}, nil
}

func (f *fakeAuthAPI) ResetPasswordForEmail(ctx context.Context, identifier string) error {
	f.passwordResets = append(f.passwordResets, identifier)
	return nil
}

func (f *fakeAuthAPI) UpdatePassword(ctx context.Context, userID, newPassword string) error {
	f.updatedPassword = newPassword
	return nil
}

func (f *fakeAuthAPI) GetSession(ctx context.Context) (*Session, error) {
	if f.getSession != nil {
		return f.getSession(ctx)
	}
	return nil, nil
}

func (f *fakeAuthAPI) OnAuthStateChange(fn func(event string, s *Session)) func() {
	f.listeners = append(f.listeners, fn)
	return func() {}
}

func (f *fakeAuthAPI) SignOut(ctx context.Context) error {
	f.signedOut = true
	for _, fn := range f.listeners {
		fn(EventSignedOut, nil)
	}
	return nil
}

func TestSignUpDerivesIdentifierAndMetadata(t *testing.T) {
	api := &fakeAuthAPI{}
	adapter := NewAdapter(api, NewMemoryOTPStore())

	sess, authErr := adapter.SignUp(context.Background(), "0911234567", "abc123", "Test Driver", "")
	require.Nil(t, authErr)
	require.NotNil(t, sess)

	assert.Equal(t, "driver911234567@taxiye.app", api.signUpIdentifier)
	assert.Equal(t, "Test Driver", api.signUpMetadata["name"])
	assert.Equal(t, "911234567", api.signUpMetadata["phone"])
	assert.Equal(t, "driver", api.signUpMetadata["user_type"])
}

func TestSignInIdentifierPureFunctionOfDigits(t *testing.T) {
	api := &fakeAuthAPI{}
	adapter := NewAdapter(api, NewMemoryOTPStore())

	_, authErr := adapter.SignIn(context.Background(), "09-11-23-45-67", "pw")
	require.Nil(t, authErr)
	first := api.signInIdentifier

	_, authErr = adapter.SignIn(context.Background(), "911 234 567", "pw")
	require.Nil(t, authErr)

	assert.Equal(t, first, api.signInIdentifier)
	assert.Equal(t, "driver911234567@taxiye.app", first)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind ErrorKind
	}{
		{"bad login sentinel", ErrBadLogin, ErrInvalidCredentials},
		{"duplicate sentinel", ErrAccountExists, ErrDuplicateAccount},
		{"duplicate message", errors.New("User already registered"), ErrDuplicateAccount},
		{"weak password", errors.New("Password should be at least 6 characters"), ErrWeakPassword},
		{"unconfirmed", errors.New("Email not confirmed"), ErrUnconfirmedEmail},
		{"rate limited", errors.New("email rate limit exceeded"), ErrRateLimited},
		{"expired link", errors.New("otp_expired: email link is invalid or has expired"), ErrExpiredLink},
		{"expired session", errors.New("invalid refresh_token"), ErrExpiredSession},
		{"deadline", context.DeadlineExceeded, ErrNetwork},
		{"unknown", errors.New("weird provider hiccup"), ErrOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.kind, got.Kind)
			assert.NotEmpty(t, got.Title)
			assert.NotEmpty(t, got.Description)
		})
	}
}

func TestOTPRoundTrip(t *testing.T) {
	adapter := NewAdapter(&fakeAuthAPI{}, NewMemoryOTPStore())
	ctx := context.Background()

	code, err := adapter.SendOTP(ctx, "0911234567", "")
	require.NoError(t, err)
	require.Len(t, code, 4)

	assert.False(t, adapter.VerifyOTP(ctx, "0911234567", "0000a"))
	assert.True(t, adapter.VerifyOTP(ctx, "0911234567", code))
	// a match consumes the code
	assert.False(t, adapter.VerifyOTP(ctx, "0911234567", code))
}

func TestRestoreSessionTimesOutToNil(t *testing.T) {
	api := &fakeAuthAPI{
		getSession: func(ctx context.Context) (*Session, error) {
			<-ctx.Done() // provider never answers
			return nil, ctx.Err()
		},
	}
	adapter := NewAdapter(api, NewMemoryOTPStore())

	start := time.Now()
	sess, err := adapter.RestoreSession(context.Background(), 50*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, sess)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRestoreSessionReturnsSession(t *testing.T) {
	want := &Session{User: &User{ID: "u9"}}
	api := &fakeAuthAPI{
		getSession: func(ctx context.Context) (*Session, error) { return want, nil },
	}
	adapter := NewAdapter(api, NewMemoryOTPStore())

	sess, err := adapter.RestoreSession(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, want, sess)
}
