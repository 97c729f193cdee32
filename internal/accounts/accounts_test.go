package accounts_test

import (
	"testing"

	"healcheck-back/internal/accounts"
	"healcheck-back/internal/database/dbtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnerExists(t *testing.T) {
	db := dbtest.New(t)
	dir := accounts.NewDirectory(db)
	user := dbtest.CreateUser(t, db, "alice")

	ok, err := dir.OwnerExists(testContext(t), user.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = dir.OwnerExists(testContext(t), 999)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOwnerExists_SoftDeletedUser(t *testing.T) {
	db := dbtest.New(t)
	dir := accounts.NewDirectory(db)
	user := dbtest.CreateUser(t, db, "bob")
	require.NoError(t, db.Delete(&user).Error)

	ok, err := dir.OwnerExists(testContext(t), user.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateAndFind(t *testing.T) {
	db := dbtest.New(t)
	dir := accounts.NewDirectory(db)
	email := " Carol@Example.com "

	user, err := dir.Create(testContext(t), "carol", &email, "hash")
	require.NoError(t, err)
	require.NotNil(t, user.Email)
	assert.Equal(t, "carol@example.com", *user.Email)

	byName, err := dir.FindByLogin(testContext(t), "carol")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	byEmail, err := dir.FindByLogin(testContext(t), "CAROL@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byID, err := dir.FindByID(testContext(t), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "carol", byID.Username)
}

func TestCreate_Duplicate(t *testing.T) {
	db := dbtest.New(t)
	dir := accounts.NewDirectory(db)
	email := "dave@example.com"

	_, err := dir.Create(testContext(t), "dave", &email, "hash")
	require.NoError(t, err)

	_, err = dir.Create(testContext(t), "dave", nil, "hash")
	assert.ErrorIs(t, err, accounts.ErrUserExists)

	_, err = dir.Create(testContext(t), "other", &email, "hash")
	assert.ErrorIs(t, err, accounts.ErrUserExists)
}

func TestFind_NotFound(t *testing.T) {
	db := dbtest.New(t)
	dir := accounts.NewDirectory(db)

	_, err := dir.FindByLogin(testContext(t), "nobody")
	assert.ErrorIs(t, err, accounts.ErrUserNotFound)

	_, err = dir.FindByID(testContext(t), 42)
	assert.ErrorIs(t, err, accounts.ErrUserNotFound)
}
