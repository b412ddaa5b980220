package application

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-task-manager/internal/domain/apperr"
	"github.com/oksasatya/go-task-manager/pkg/mailer"
	tpl "github.com/oksasatya/go-task-manager/pkg/mailer/templates"
)

func register(t *testing.T, f *fixture, email string) RegisterInput {
	t.Helper()
	in := RegisterInput{Name: "Andrew", Email: email, Password: "Red12345!", Age: 27}
	_, err := f.users.Register(context.Background(), in)
	require.NoError(t, err)
	return in
}

func rawFields(t *testing.T, body string) map[string]json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(body), &m))
	return m
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRegister_ThenFindByCredentials(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	u, err := f.users.Register(ctx, RegisterInput{Name: "  Andrew ", Email: " Andrew@Example.COM ", Password: "Red12345!", Age: 27})
	require.NoError(t, err)
	assert.Equal(t, "Andrew", u.Name)
	assert.Equal(t, "andrew@example.com", u.Email)
	assert.NotEqual(t, "Red12345!", u.Password)

	found, err := f.users.FindByCredentials(ctx, "andrew@example.com", "Red12345!")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture()
	cases := map[string]RegisterInput{
		"missing name":      {Email: "a@b.io", Password: "Red12345!"},
		"bad email":         {Name: "A", Email: "nope", Password: "Red12345!"},
		"short password":    {Name: "A", Email: "a@b.io", Password: "abc"},
		"password in value": {Name: "A", Email: "a@b.io", Password: "myPassWord1"},
		"negative age":      {Name: "A", Email: "a@b.io", Password: "Red12345!", Age: -1},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.users.Register(context.Background(), in)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrValidation)
			assert.NotEmpty(t, apperr.DetailsOf(err))
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture()
	register(t, f, "dup@example.com")

	_, err := f.users.Register(context.Background(), RegisterInput{Name: "B", Email: "DUP@example.com", Password: "Red12345!"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestRegister_QueuesWelcomeEmail(t *testing.T) {
	f := newFixture()
	register(t, f, "welcome@example.com")

	require.Len(t, f.mail.jobs, 1)
	job, ok := f.mail.jobs[0].(mailer.EmailJob)
	require.True(t, ok)
	assert.Equal(t, "welcome@example.com", job.To)
	assert.Equal(t, tpl.Welcome, job.Template)
	assert.Equal(t, "Andrew", job.Data["Name"])
}

func TestFindByCredentials_GenericFailure(t *testing.T) {
	f := newFixture()
	register(t, f, "a@example.com")
	ctx := context.Background()

	_, errUnknown := f.users.FindByCredentials(ctx, "nobody@example.com", "Red12345!")
	_, errWrong := f.users.FindByCredentials(ctx, "a@example.com", "wrong-pass")

	for _, err := range []error{errUnknown, errWrong} {
		require.Error(t, err)
		assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
		assert.Equal(t, "unable to login", apperr.MessageOf(err, ""))
	}
}

func TestFindByCredentials_ComparesRawPassword(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.users.Register(ctx, RegisterInput{Name: "Pad", Email: "pad@example.com", Password: "  Red12345!  "})
	require.NoError(t, err)

	_, err = f.users.FindByCredentials(ctx, "pad@example.com", "Red12345!")
	require.NoError(t, err, "stored password is trimmed on sign-up")

	_, err = f.users.FindByCredentials(ctx, "pad@example.com", " Red12345! ")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPublicView_OmitsSecrets(t *testing.T) {
	f := newFixture()
	in := register(t, f, "pub@example.com")
	u, err := f.users.FindByCredentials(context.Background(), in.Email, in.Password)
	require.NoError(t, err)
	_, err = f.sessions.IssueToken(context.Background(), u)
	require.NoError(t, err)

	b, err := json.Marshal(f.users.PublicView(u))
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))

	assert.Equal(t, "pub@example.com", m["email"])
	for _, k := range []string{"password", "tokens", "avatar"} {
		assert.NotContains(t, m, k)
	}
}

func TestParseUserPatch(t *testing.T) {
	p, err := ParseUserPatch(rawFields(t, `{"name":"New","age":30}`))
	require.NoError(t, err)
	require.NotNil(t, p.Name)
	require.NotNil(t, p.Age)
	assert.Equal(t, "New", *p.Name)
	assert.Equal(t, 30, *p.Age)
	assert.Nil(t, p.Email)
	assert.Nil(t, p.Password)

	_, err = ParseUserPatch(rawFields(t, `{"name":"x","location":"Philadelphia"}`))
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
	assert.Contains(t, apperr.DetailsOf(err), "location")

	_, err = ParseUserPatch(rawFields(t, `{"age":"old"}`))
	require.Error(t, err)
	assert.Equal(t, "must be a int", apperr.DetailsOf(err)["age"])
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	in := register(t, f, "upd@example.com")
	u, err := f.users.FindByCredentials(ctx, in.Email, in.Password)
	require.NoError(t, err)
	oldHash := u.Password

	p, err := ParseUserPatch(rawFields(t, `{"name":"Jess","age":31}`))
	require.NoError(t, err)
	u, err = f.users.UpdateProfile(ctx, u, p)
	require.NoError(t, err)
	assert.Equal(t, "Jess", u.Name)
	assert.Equal(t, 31, u.Age)
	assert.Equal(t, oldHash, u.Password, "hash must not change without a password in the patch")

	p, err = ParseUserPatch(rawFields(t, `{"password":"Blue98765"}`))
	require.NoError(t, err)
	_, err = f.users.UpdateProfile(ctx, u, p)
	require.NoError(t, err)
	assert.NotEqual(t, oldHash, u.Password)

	_, err = f.users.FindByCredentials(ctx, in.Email, "Blue98765")
	require.NoError(t, err)
}

func TestUpdateProfile_InvalidAndConflict(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	register(t, f, "taken@example.com")
	in := register(t, f, "me@example.com")
	u, err := f.users.FindByCredentials(ctx, in.Email, in.Password)
	require.NoError(t, err)

	p, err := ParseUserPatch(rawFields(t, `{"password":"password123"}`))
	require.NoError(t, err)
	_, err = f.users.UpdateProfile(ctx, u, p)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	p, err = ParseUserPatch(rawFields(t, `{"email":"taken@example.com"}`))
	require.NoError(t, err)
	_, err = f.users.UpdateProfile(ctx, u, p)
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
	assert.Equal(t, "me@example.com", u.Email, "failed update leaves the user untouched")
}

func TestDeleteAccount_CascadesTasks(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	in := register(t, f, "gone@example.com")
	u, err := f.users.FindByCredentials(ctx, in.Email, in.Password)
	require.NoError(t, err)

	for _, d := range []string{"one", "two", "three"} {
		_, err := f.tasks.Create(ctx, u.ID, TaskDraft{Description: d})
		require.NoError(t, err)
	}

	require.NoError(t, f.users.DeleteAccount(ctx, u))

	n, err := f.store.Tasks().CountByOwner(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = f.users.GetProfile(ctx, u.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Empty(t, f.index.docs)

	last := f.mail.jobs[len(f.mail.jobs)-1].(mailer.EmailJob)
	assert.Equal(t, tpl.Cancellation, last.Template)
}

func TestAvatarLifecycle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	in := register(t, f, "pic@example.com")
	u, err := f.users.FindByCredentials(ctx, in.Email, in.Password)
	require.NoError(t, err)

	_, err = f.users.Avatar(ctx, u.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, f.users.SetAvatar(ctx, u, "me.PNG", pngBytes(t, 40, 20)))
	assert.Contains(t, u.AvatarURL, u.ID)

	got, err := f.users.Avatar(ctx, u.ID)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(got))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 250, 250), img.Bounds())
	assert.Contains(t, f.cache.m, u.ID, "avatar read populates the cache")

	f.users.ClearAvatar(ctx, u)
	assert.NotContains(t, f.cache.m, u.ID)
	assert.Empty(t, f.avatars.objects)
	_, err = f.users.Avatar(ctx, u.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSetAvatar_Rejects(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	in := register(t, f, "bad@example.com")
	u, err := f.users.FindByCredentials(ctx, in.Email, in.Password)
	require.NoError(t, err)

	err = f.users.SetAvatar(ctx, u, "doc.pdf", pngBytes(t, 4, 4))
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	err = f.users.SetAvatar(ctx, u, "big.png", make([]byte, 1000001))
	assert.Equal(t, ErrAvatarTooLarge, err)
	assert.Equal(t, "File too large", apperr.MessageOf(err, ""))
	assert.Equal(t, int64(1000000), f.users.AvatarMaxBytes())

	err = f.users.SetAvatar(ctx, u, "fake.jpg", []byte("not an image"))
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}
