package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/Mujanati13/xcite/internal/auth"
	"github.com/Mujanati13/xcite/internal/table"
	"github.com/spf13/cobra"
)

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	var token, secretKey string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Start a session with a token or the shared secret",
		Long: `Verify a token against the API and store it as the current session.

With --secret-key a new token is requested from the API first. A stored session
is trusted for five minutes, after which a new login is required.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogin(rootOpts, cmd, token, secretKey)
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "JWT to log in with")
	cmd.Flags().StringVar(&secretKey, "secret-key", "", "shared secret to request a token with")
	cmd.MarkFlagsOneRequired("token", "secret-key")
	cmd.MarkFlagsMutuallyExclusive("token", "secret-key")
	return cmd
}

func runLogin(opts *RootOptions, cmd *cobra.Command, token, secretKey string) error {
	ctx := commandContext(cmd)
	out := opts.formatter(cmd)
	api := opts.backend()

	if secretKey != "" {
		t, err := api.GenerateToken(ctx, secretKey)
		if err != nil {
			return out.Fail(err)
		}
		token = t
		out.VerboseLog("token generated")
	}

	claims, err := api.Login(ctx, token)
	if err != nil {
		return out.Fail(err)
	}
	sess, err := opts.sessions().Start(token)
	if err != nil {
		return WrapExitError(ExitCommandError, "store session", err)
	}

	return out.Notify(table.Notification{
		Kind:    table.KindSuccess,
		Message: fmt.Sprintf("Authentication successful, session valid until %s", sess.ExpiresAt.Format(time.DateTime)),
	}, map[string]any{"session": sess, "claims": claims})
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := rootOpts.formatter(cmd)
			if err := rootOpts.backend().Logout(commandContext(cmd)); err != nil {
				out.VerboseLog("logout request failed: %v", err)
			}
			if err := rootOpts.sessions().Clear(); err != nil {
				return WrapExitError(ExitCommandError, "clear session", err)
			}
			return out.Notify(table.Notification{Kind: table.KindSuccess, Message: "Logged out successfully"}, nil)
		},
	}
}

// NewTokenCommand creates the token command group. generate and verify work
// offline with the signing key, info inspects the stored session.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Generate and inspect tokens",
	}
	cmd.AddCommand(newTokenGenerateCommand(rootOpts))
	cmd.AddCommand(newTokenVerifyCommand(rootOpts))
	cmd.AddCommand(newTokenInfoCommand(rootOpts))
	return cmd
}

func newTokenGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	var signingKey string
	var days int

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Sign a new token with the server's signing key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			issuer, err := rootOpts.issuer(signingKey)
			if err != nil {
				return err
			}
			if days == 0 {
				days = rootOpts.Config.Auth.TokenDays
			}
			token, err := issuer.Generate(days, "proptable")
			if err != nil {
				return WrapExitError(ExitFailure, "generate token", err)
			}
			return rootOpts.formatter(cmd).Success(token, map[string]any{
				"token":     token,
				"expiresIn": fmt.Sprintf("%dd", days),
			})
		},
	}
	cmd.Flags().StringVar(&signingKey, "signing-key", "", "signing key (default auth.signing_key)")
	cmd.Flags().IntVar(&days, "days", 0, "validity in days (default auth.token_days)")
	return cmd
}

func newTokenVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	var signingKey string

	cmd := &cobra.Command{
		Use:   "verify <token>",
		Short: "Check a token's signature and expiry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			issuer, err := rootOpts.issuer(signingKey)
			if err != nil {
				return err
			}
			out := rootOpts.formatter(cmd)
			claims, err := issuer.Verify(args[0])
			if err != nil {
				_ = out.Notify(table.Notification{Kind: table.KindError, Message: "Invalid or expired token"}, nil)
				return &ExitError{Code: ExitFailure, Message: "invalid token", Err: errPrinted}
			}
			text := "Token is valid"
			if claims.ExpiresAt != nil {
				text += ", expires " + claims.ExpiresAt.Format(time.DateTime)
			}
			return out.Success(text, claims)
		},
	}
	cmd.Flags().StringVar(&signingKey, "signing-key", "", "signing key (default auth.signing_key)")
	return cmd
}

func newTokenInfoCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := rootOpts.sessions().Load()
			if err != nil {
				return WrapExitError(ExitCommandError, "load session", err)
			}
			now := rootOpts.Now()
			expired := auth.IsExpired(sess, now)
			out := rootOpts.formatter(cmd)
			data := map[string]any{"session": sess, "expired": expired}

			switch {
			case sess.Token == "":
				return out.Success("No session, run proptable login", data)
			case expired:
				return out.Success(fmt.Sprintf("Session expired at %s", sess.ExpiresAt.Format(time.DateTime)), data)
			default:
				left := sess.IssuedAt.Add(auth.SessionTTL).Sub(now).Round(time.Second)
				return out.Success(fmt.Sprintf("Session valid for %s (issued %s)", left, sess.IssuedAt.Format(time.DateTime)), data)
			}
		},
	}
}

func (o *RootOptions) issuer(flagKey string) (*auth.Issuer, error) {
	key := flagKey
	if key == "" {
		key = o.Config.Auth.SigningKey
	}
	issuer, err := auth.NewIssuer(key, "")
	if errors.Is(err, auth.ErrEmptySigningKey) {
		return nil, NewExitError(ExitCommandError, "no signing key: set --signing-key or auth.signing_key")
	}
	if err != nil {
		return nil, err
	}
	return issuer.WithClock(o.Now), nil
}
