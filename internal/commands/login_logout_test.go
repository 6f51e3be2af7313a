package commands_test

import (
	"strconv"
	"testing"

	"taskdesk/internal/commands"
	"taskdesk/internal/exitcode"
	"taskdesk/internal/keystore"
)

func persisted(t *testing.T, e *env) bool {
	t.Helper()
	_, ok, err := e.storage.Get(keystore.CredentialKey)
	if err != nil {
		t.Fatalf("read storage: %v", err)
	}
	return ok
}

// TestLoginCommand verifies a successful login persists the credential
func TestLoginCommand(t *testing.T) {
	e := newEnv(t, false)

	stdout, stderr, code := runCommand(t, &commands.LoginCmd{}, e,
		[]string{"--email", "a@b.c", "--password", "secret"}, false)
	expect(t, code, stdout, stderr, exitcode.Success, "ok\n", "")

	if !e.app.Session.IsAuthenticated() {
		t.Error("session should be authenticated")
	}
	if !persisted(t, e) {
		t.Error("credential should be persisted")
	}
}

// TestLoginCommand_AlreadyLoggedIn verifies login does nothing with a live session
func TestLoginCommand_AlreadyLoggedIn(t *testing.T) {
	e := newEnv(t, true)
	before := e.svc.Calls("Login")

	stdout, stderr, code := runCommand(t, &commands.LoginCmd{}, e,
		[]string{"--email", "a@b.c", "--password", "secret"}, false)
	expect(t, code, stdout, stderr, exitcode.Success, "already logged in\n", "")

	if e.svc.Calls("Login") != before {
		t.Error("expected no Login call")
	}
}

// TestLoginCommand_MissingFlags verifies email and password are required
func TestLoginCommand_MissingFlags(t *testing.T) {
	e := newEnv(t, false)

	stdout, stderr, code := runCommand(t, &commands.LoginCmd{}, e, []string{"--email", "a@b.c"}, false)
	expect(t, code, stdout, stderr, exitcode.UserError, "", "error: --email and --password required\n")

	if e.svc.TotalCalls() != 0 {
		t.Errorf("expected no backend calls, got %d", e.svc.TotalCalls())
	}
}

// TestLoginCommand_WrongPassword verifies a rejected login leaves nothing behind
func TestLoginCommand_WrongPassword(t *testing.T) {
	e := newEnv(t, false)

	stdout, stderr, code := runCommand(t, &commands.LoginCmd{}, e,
		[]string{"--email", "a@b.c", "--password", "wrong"}, false)
	expect(t, code, stdout, stderr, exitcode.AuthError, "", "error: Ошибка входа: Неверный email или пароль\n")

	if e.app.Session.IsAuthenticated() {
		t.Error("session should not be authenticated")
	}
	if persisted(t, e) {
		t.Error("credential should not be persisted")
	}
}

// TestRegisterCommand verifies registration signs the new user in
func TestRegisterCommand(t *testing.T) {
	e := newEnv(t, false)

	stdout, stderr, code := runCommand(t, &commands.RegisterCmd{}, e,
		[]string{"--email", "n@b.c", "--username", "newbie", "--password", "pw"}, true)
	expect(t, code, stdout, stderr, exitcode.Success, "", "")

	id, ok := e.app.Session.Identity()
	if !ok || id.Username != "newbie" {
		t.Errorf("expected identity newbie, got %+v", id)
	}

	stdout, stderr, code = runCommand(t, &commands.RegisterCmd{}, e,
		[]string{"--email", "a@b.c", "--username", "again", "--password", "pw"}, false)
	expect(t, code, stdout, stderr, exitcode.UserError, "",
		"error: Ошибка регистрации: Пользователь с таким email уже существует\n")
	if e.app.Session.IsAuthenticated() {
		t.Error("failed registration should leave the session anonymous")
	}
}

// TestRegisterCommand_MissingFlags verifies all registration fields are required
func TestRegisterCommand_MissingFlags(t *testing.T) {
	e := newEnv(t, false)

	stdout, stderr, code := runCommand(t, &commands.RegisterCmd{}, e,
		[]string{"--email", "n@b.c", "--password", "pw"}, false)
	expect(t, code, stdout, stderr, exitcode.UserError, "", "error: --email, --username and --password required\n")
}

// TestLogoutCommand verifies logout removes the persisted credential
func TestLogoutCommand(t *testing.T) {
	e := newEnv(t, true)

	stdout, stderr, code := runCommand(t, &commands.LogoutCmd{}, e, nil, false)
	expect(t, code, stdout, stderr, exitcode.Success, "ok\n", "")

	if persisted(t, e) {
		t.Error("credential should have been deleted")
	}
	if e.app.Session.IsAuthenticated() {
		t.Error("session should be anonymous")
	}
}

// TestLogoutCommand_NotLoggedIn verifies logout handles not being logged in
func TestLogoutCommand_NotLoggedIn(t *testing.T) {
	e := newEnv(t, false)

	stdout, stderr, code := runCommand(t, &commands.LogoutCmd{}, e, nil, false)
	expect(t, code, stdout, stderr, exitcode.Success, "not logged in\n", "")
}

// TestLogoutCommand_NotLoggedInQuiet verifies logout is quiet when not logged in
func TestLogoutCommand_NotLoggedInQuiet(t *testing.T) {
	e := newEnv(t, false)

	stdout, stderr, code := runCommand(t, &commands.LogoutCmd{}, e, nil, true)
	expect(t, code, stdout, stderr, exitcode.Success, "", "")
}

// TestWhoamiCommand verifies the identity line
func TestWhoamiCommand(t *testing.T) {
	e := newEnv(t, true)

	stdout, stderr, code := runCommand(t, &commands.WhoamiCmd{}, e, nil, false)
	expect(t, code, stdout, stderr, exitcode.Success, "alice <a@b.c> (id "+strconv.Itoa(e.uid)+")\n", "")
}
