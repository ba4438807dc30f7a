package session

import (
	"context"
	"log"
	"time"

	"taxiye-driver-server/utils"
)

// Adapter is the session/identity layer the rest of the app talks to. It
// normalizes phone numbers into the provider's email-shaped identifiers,
// classifies every provider failure into the fixed taxonomy, and guards
// session restoration with a timeout so startup never hangs.
type Adapter struct {
	api AuthAPI
	otp OTPStore
}

func NewAdapter(api AuthAPI, otp OTPStore) *Adapter {
	return &Adapter{api: api, otp: otp}
}

// SignUp registers a driver account. The identity metadata carries what the
// post-signup hook needs to materialize the Driver row.
func (a *Adapter) SignUp(ctx context.Context, phone, password, name, email string) (*Session, *AuthError) {
	identifier := utils.DriverIdentifier(phone)
	metadata := map[string]string{
		"name":      name,
		"phone":     utils.NormalizePhoneNumber(phone),
		"email":     email,
		"user_type": "driver",
	}
	sess, err := a.api.SignUp(ctx, identifier, password, metadata)
	if err != nil {
		return nil, Classify(err)
	}
	return sess, nil
}

func (a *Adapter) SignIn(ctx context.Context, phone, password string) (*Session, *AuthError) {
	sess, err := a.api.SignInWithPassword(ctx, utils.DriverIdentifier(phone), password)
	if err != nil {
		return nil, Classify(err)
	}
	return sess, nil
}

// SendOTP generates a 4-digit code and "delivers" it. Delivery is simulated:
// the code is logged and parked with a TTL so VerifyOTP can check it.
func (a *Adapter) SendOTP(ctx context.Context, phone, email string) (string, error) {
	code, err := generateOTP()
	if err != nil {
		return "", err
	}
	if err := a.otp.Put(ctx, utils.NormalizePhoneNumber(phone), code, otpTTL); err != nil {
		return "", err
	}
	log.Printf("otp: delivered code to %s", utils.DisplayPhoneNumber(phone))
	if email != "" {
		_, _ = utils.SendMail(email, "Your Taxiye verification code", "<p>Your code is "+code+"</p>")
	}
	return code, nil
}

// VerifyOTP reports whether the supplied code matches the outstanding one.
// A match consumes the code.
func (a *Adapter) VerifyOTP(ctx context.Context, phone, code string) bool {
	expected, err := a.otp.Get(ctx, utils.NormalizePhoneNumber(phone))
	if err != nil || expected == "" || code != expected {
		return false
	}
	_ = a.otp.Delete(ctx, utils.NormalizePhoneNumber(phone))
	return true
}

func (a *Adapter) ResetPassword(ctx context.Context, identifier string) *AuthError {
	if err := a.api.ResetPasswordForEmail(ctx, identifier); err != nil {
		return Classify(err)
	}
	return nil
}

func (a *Adapter) UpdatePassword(ctx context.Context, userID, newPassword string) *AuthError {
	if err := a.api.UpdatePassword(ctx, userID, newPassword); err != nil {
		return Classify(err)
	}
	return nil
}

// RestoreSession races the provider's session lookup against the timeout.
// Both a timeout and a clean "no session" resolve to nil; the caller always
// reaches a terminal state.
func (a *Adapter) RestoreSession(ctx context.Context, timeout time.Duration) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		sess *Session
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		sess, err := a.api.GetSession(ctx)
		ch <- result{sess, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, Classify(r.err)
		}
		return r.sess, nil
	case <-ctx.Done():
		log.Printf("session: restore timed out after %s", timeout)
		return nil, nil
	}
}

func (a *Adapter) SignOut(ctx context.Context) error {
	return a.api.SignOut(ctx)
}

// OnAuthStateChange forwards the provider's session-change notifications.
func (a *Adapter) OnAuthStateChange(fn func(event string, s *Session)) (unsubscribe func()) {
	return a.api.OnAuthStateChange(fn)
}
