package credential

import (
	"context"
	"errors"

	"github.com/frahmantamala/access-control/internal/privilege"
	"github.com/frahmantamala/access-control/internal/user"
	"golang.org/x/crypto/bcrypt"
)

// Credential binds a hashed password to a user. It only ever holds one-way
// hashes: of the password and of the owner's id.
type Credential struct {
	passwordHash  string
	userIDHash    string
	ownerUserName string
}

func (c Credential) PasswordHash() string  { return c.passwordHash }
func (c Credential) UserIDHash() string    { return c.userIDHash }
func (c Credential) OwnerUserName() string { return c.ownerUserName }

// IsEmpty reports whether c is the value returned for a missing credential.
func (c Credential) IsEmpty() bool {
	return c.passwordHash == "" || c.userIDHash == "" || c.ownerUserName == ""
}

var (
	ErrEmptyPassword = errors.New("credential: password is required")
	ErrEmptyUser     = errors.New("credential: user is required")
)

// Hasher produces and checks one-way salted hashes.
type Hasher interface {
	Hash(secret string) (string, error)
	Compare(hash, secret string) bool
}

type BcryptHasher struct {
	Cost int
}

func NewBcryptHasher(cost int) BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return BcryptHasher{Cost: cost}
}

func (h BcryptHasher) Hash(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), h.Cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Compare runs bcrypt's constant-time verification.
func (h BcryptHasher) Compare(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// New hashes plaintext and the user's id. Neither raw value is retained.
func New(u user.User, plaintext string, hasher Hasher) (Credential, error) {
	if u.Name() == "" || u.ID() == "" {
		return Credential{}, ErrEmptyUser
	}
	if plaintext == "" {
		return Credential{}, ErrEmptyPassword
	}

	passwordHash, err := hasher.Hash(plaintext)
	if err != nil {
		return Credential{}, err
	}
	userIDHash, err := hasher.Hash(u.ID())
	if err != nil {
		return Credential{}, err
	}
	return Credential{
		passwordHash:  passwordHash,
		userIDHash:    userIDHash,
		ownerUserName: u.Name(),
	}, nil
}

// Columns are the constructor columns of a credentials row.
var Columns = []string{"password_hash", "user_id_hash", "owner_user_name"}

var Hydrator = privilege.Hydrator[Credential]{
	Fields: map[string]func(*Credential, any){
		"password_hash":   func(c *Credential, v any) { c.passwordHash = privilege.AsString(v) },
		"user_id_hash":    func(c *Credential, v any) { c.userIDHash = privilege.AsString(v) },
		"owner_user_name": func(c *Credential, v any) { c.ownerUserName = privilege.AsString(v) },
	},
	Finalize: func(c Credential) Credential {
		if c.IsEmpty() {
			return Credential{}
		}
		return c
	},
	Construct: func(args []any) Credential {
		c := Credential{
			passwordHash:  privilege.AsString(privilege.Arg(args, 0)),
			userIDHash:    privilege.AsString(privilege.Arg(args, 1)),
			ownerUserName: privilege.AsString(privilege.Arg(args, 2)),
		}
		if c.IsEmpty() {
			return Credential{}
		}
		return c
	},
}

// Store persists credentials keyed by owner user name. Update replaces the row
// as a whole; a stored hash is never edited.
type Store interface {
	EnsureTableExists(ctx context.Context) (bool, error)
	Create(ctx context.Context, c Credential) (bool, error)
	Read(ctx context.Context, ownerUserName string) (Credential, error)
	ReadAll(ctx context.Context) ([]Credential, error)
	Update(ctx context.Context, ownerUserName string, c Credential) (bool, error)
	Delete(ctx context.Context, ownerUserName string) (bool, error)
}
