package session

import (
	"net"
	"testing"

	"github.com/danmuck/p4ctl/internal/mangle"
	"github.com/danmuck/p4ctl/internal/protocol"
	"github.com/danmuck/p4ctl/internal/testutil/testlog"
)

// newTCP returns a loopback client connection and the accepted server side.
func newTCP(t *testing.T) (net.Conn, *fakeServer) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	client, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	server, err := ln.Accept()
	if err != nil {
		_ = client.Close()
		t.Fatalf("accept: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
		_ = server.Close()
	})
	return client, &fakeServer{t: t, conn: server}
}

func TestAddressBoundPromptAndCrypto(t *testing.T) {
	testlog.Start(t)
	conn, srv := newTCP(t)
	daddr := conn.RemoteAddr().String()
	const password = "pw"
	const ticket = "0123456789ABCDEF0123456789ABCDEF"
	const digest = "00112233445566778899AABBCCDDEEFF"

	sess := Open(conn, testConfig(), StaticInput(password), nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.expect(protocol.FuncProtocol)
		srv.expect("user-info")
		srv.write(protocol.NewBuilder().Func(protocol.FuncProtocol).Param("server2", "33"))
		srv.write(diag(protocol.SeverityFailed, "Perforce password (P4PASSWD) invalid or unset."))
		srv.release()

		srv.expect("user-login")
		srv.write(protocol.NewBuilder().
			Func(protocol.FuncPrompt).
			Param("data", "Enter password: ").
			Param("digest", "abcd").
			Param("confirm", "dm-Login"))
		resp := srv.expect("dm-Login")
		hash := mangle.MD5Hex([]byte(password))
		want := mangle.MD5Hex(mangle.MD5Hex(hash, []byte("abcd")), []byte(daddr))
		if got, _ := resp.Get("data"); string(got) != string(want) {
			t.Errorf("prompt data got=%s want=%s", got, want)
		}
		if got, _ := resp.GetString("daddr"); got != daddr {
			t.Errorf("prompt daddr got=%q want=%q", got, daddr)
		}

		pad, err := mangle.DigestEncrypt([]byte(digest), hash)
		if err != nil {
			t.Errorf("pad: %v", err)
		}
		sealed, err := mangle.Xor([]byte(ticket), pad)
		if err != nil {
			t.Errorf("seal: %v", err)
		}
		srv.write(protocol.NewBuilder().
			Func(protocol.FuncSetPassword).
			Param("digest", digest).
			ParamBytes("data", sealed))
		srv.release()

		srv.expect("user-changes")
		srv.write(protocol.NewBuilder().
			Func(protocol.FuncCrypto).
			Param("token", "TOKEN").
			Param("confirm", "dm-Crypto"))
		reply := srv.expect("dm-Crypto")
		want = mangle.MD5Hex(mangle.MD5Hex([]byte("TOKEN"), []byte(ticket)), []byte(daddr))
		if got, _ := reply.Get("token"); string(got) != string(want) {
			t.Errorf("crypto token got=%s want=%s", got, want)
		}
		if got, _ := reply.GetString("daddr"); got != daddr {
			t.Errorf("crypto daddr got=%q want=%q", got, daddr)
		}
		srv.release()
	}()

	ok, err := sess.Call(testContext(t), nil, "changes")
	<-done
	if err != nil || !ok {
		t.Fatalf("call ok=%v err=%v", ok, err)
	}
	if sess.ServerProtocol() != 33 {
		t.Fatalf("server protocol=%d", sess.ServerProtocol())
	}
}

func TestOldServerSkipsAddressBinding(t *testing.T) {
	testlog.Start(t)
	conn, srv := newTCP(t)
	cfg := testConfig()
	cfg.Password = "pw"
	sess := Open(conn, cfg, nil, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.expect(protocol.FuncProtocol)
		srv.expect("user-info")
		srv.write(protocol.NewBuilder().Func(protocol.FuncProtocol).Param("server2", "28"))
		srv.release()

		srv.expect("user-login")
		srv.write(protocol.NewBuilder().
			Func(protocol.FuncPrompt).
			Param("digest", "abcd").
			Param("confirm", "dm-Login"))
		resp := srv.expect("dm-Login")
		want := mangle.MD5Hex(mangle.MD5Hex([]byte("pw")), []byte("abcd"))
		if got, _ := resp.Get("data"); string(got) != string(want) {
			t.Errorf("prompt data got=%s want=%s", got, want)
		}
		srv.release()
	}()

	ok, err := sess.Call(testContext(t), nil, "login")
	<-done
	if err != nil || !ok {
		t.Fatalf("call ok=%v err=%v", ok, err)
	}
}

func TestPromptNoPromptSkipsResolver(t *testing.T) {
	testlog.Start(t)
	conn, srv := newPipe(t)
	resolver := InputResolverFunc(func(string, bool) (string, error) {
		t.Errorf("resolver should not be called")
		return "typed", nil
	})
	sess := Open(conn, testConfig(), resolver, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.handshake()
		srv.expect("user-login")
		srv.write(protocol.NewBuilder().
			Func(protocol.FuncPrompt).
			Param("data", "Enter password: ").
			Param("noprompt", "").
			Param("confirm", "dm-Login"))
		resp := srv.expect("dm-Login")
		if v, _ := resp.GetString("data"); v != "" {
			t.Errorf("expected empty secret, got %q", v)
		}
		srv.release()
	}()

	ok, err := sess.Call(testContext(t), nil, "login")
	<-done
	if err != nil || !ok {
		t.Fatalf("call ok=%v err=%v", ok, err)
	}
}

func TestPromptTruncateWithoutDigest(t *testing.T) {
	testlog.Start(t)
	conn, srv := newPipe(t)
	cfg := testConfig()
	cfg.Password = "0123456789abcdefXYZ"
	sess := Open(conn, cfg, nil, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.handshake()
		srv.expect("user-login")
		srv.write(protocol.NewBuilder().
			Func(protocol.FuncPrompt).
			Param("truncate", "").
			Param("confirm", "dm-Login"))
		resp := srv.expect("dm-Login")
		if v, _ := resp.GetString("data"); v != "0123456789abcdef" {
			t.Errorf("expected truncated secret, got %q", v)
		}
		if resp.Has("digest") {
			t.Errorf("no digest was offered")
		}
		srv.release()
	}()

	ok, err := sess.Call(testContext(t), nil, "login")
	<-done
	if err != nil || !ok {
		t.Fatalf("call ok=%v err=%v", ok, err)
	}
}

func TestZeroConfigIsCaseSensitive(t *testing.T) {
	testlog.Start(t)
	if got, _ := baseTemplate(Config{}).Build().GetString("clientCase"); got != "1" {
		t.Fatalf("clientCase got=%q want=1", got)
	}
	if got, _ := baseTemplate(Config{CaseInsensitive: true}).Build().GetString("clientCase"); got != "0" {
		t.Fatalf("clientCase got=%q want=0", got)
	}
}
