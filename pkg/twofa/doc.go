// Package twofa provides TOTP two-factor enrollment and sign-in verification
// for mentor-idm.
//
// Mentor accounts must hold an enabled credential before their sign-in is
// considered 2FA-protected; mentee accounts never require one. A credential
// moves through three states:
//
//	UNPROVISIONED -> PENDING_VERIFICATION -> ENABLED
//
// BeginEnrollment creates the credential in pending state and returns the
// secret (base32) plus a provisioning URI for authenticator apps, exactly
// once. CompleteEnrollment validates a code from the app and flips the
// credential to enabled; the transition is monotonic and an atomic
// conditional update, so concurrent completions are safe and retries are
// no-ops. VerifySignIn only ever accepts enabled credentials.
//
// # Basic Usage
//
//	store := kvstore.NewMemoryStore()
//	accounts := account.NewService(account.NewKVRepository(store))
//	service := twofa.NewTwoFaService(twofa.NewKVRepository(store), accounts)
//
//	// Start setup for a mentor account
//	key, err := service.BeginEnrollment(ctx, accountID, "")
//	// Show key.SecretBase32 and key.ProvisioningURI (QR code) to the user
//
//	// User enters a code from their authenticator app
//	err = service.CompleteEnrollment(ctx, accountID, userEnteredCode)
//
//	// At sign-in, after password verification:
//	required, err := service.CheckRequiresTwoFactor(ctx, accountID)
//	if required {
//		err = service.VerifySignIn(ctx, accountID, codeFromUser)
//	}
//
// Sequencing matters: password verification by the identity provider must
// succeed before VerifySignIn is invoked, and session issuance stays with the
// identity provider after it. This package only judges the second factor.
//
// Expected outcomes are typed errors (ErrInvalidCode,
// ErrCredentialAlreadyExists, ErrNoPendingCredential,
// ErrCredentialNotEnabled); validation never reveals whether a rejected code
// was wrong or merely expired.
//
// There is no disable or reset path. Re-enrollment after a lost device is an
// operator concern outside this package.
package twofa
