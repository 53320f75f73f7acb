package mangle

import (
	"bytes"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/danmuck/p4ctl/internal/testutil/testlog"
)

func TestEncryptKnownAnswers(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		plain, key, want string
	}{
		{plain: "hello", key: "secret", want: "E5DEA400FD2915756FB40EC31FE44BBE"},
		{plain: "AAAAAAAAAAAAAAAA", key: "0123456789abcdef0123", want: "19BE94CE9F5C9AC36C57CCDE5DCDF1BD"},
		{plain: "", key: "secret", want: ""},
	}
	for _, tc := range cases {
		got := Encrypt([]byte(tc.plain), []byte(tc.key))
		if string(got) != tc.want {
			t.Fatalf("Encrypt(%q, %q) got=%s want=%s", tc.plain, tc.key, got, tc.want)
		}
	}
}

func TestDigestEncryptKnownAnswer(t *testing.T) {
	testlog.Start(t)
	got, err := DigestEncrypt([]byte("0123456789ABCDEF0123456789ABCDEF"), []byte("5EBE2294ECD0E0F08EAB7690D2A6EE69"))
	if err != nil {
		t.Fatalf("digest encrypt: %v", err)
	}
	if string(got) != "8E159C431EF046790156236933818756" {
		t.Fatalf("unexpected digest=%s", got)
	}
	back, err := DigestDecrypt(got, []byte("5EBE2294ECD0E0F08EAB7690D2A6EE69"))
	if err != nil {
		t.Fatalf("digest decrypt: %v", err)
	}
	if string(back) != "0123456789ABCDEF0123456789ABCDEF" {
		t.Fatalf("digest round trip got=%s", back)
	}
}

func TestDecryptInvertsEncrypt(t *testing.T) {
	testlog.Start(t)
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 300; i++ {
		plain := make([]byte, rng.Intn(BlockSize+1))
		for j := range plain {
			plain[j] = byte(1 + rng.Intn(255))
		}
		key := make([]byte, 1+rng.Intn(BlockSize))
		rng.Read(key)

		enc := Encrypt(plain, key)
		dec, err := Decrypt(enc, key)
		if err != nil {
			t.Fatalf("iteration=%d decrypt: %v", i, err)
		}
		if !bytes.Equal(dec, plain) {
			t.Fatalf("iteration=%d got=%x want=%x", i, dec, plain)
		}
	}
}

func TestEncryptChunksWithoutChaining(t *testing.T) {
	testlog.Start(t)
	key := []byte("key")
	a := []byte("0123456789abcdef")
	b := []byte("tail")
	whole := Encrypt(append(append([]byte(nil), a...), b...), key)
	if len(whole) != 2*HexBlockSize {
		t.Fatalf("unexpected length=%d", len(whole))
	}
	if !bytes.Equal(whole[:HexBlockSize], Encrypt(a, key)) || !bytes.Equal(whole[HexBlockSize:], Encrypt(b, key)) {
		t.Fatalf("chunks are not independent")
	}
	dec, err := Decrypt(whole, key)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if string(dec) != "0123456789abcdeftail" {
		t.Fatalf("unexpected plaintext=%q", dec)
	}
}

func TestLegacyMixChangesDecrypt(t *testing.T) {
	testlog.Start(t)
	key := []byte("secret")
	enc := Encrypt([]byte("hello"), key)
	got, err := NewLegacy().Decrypt(enc, key)
	if err != nil {
		t.Fatalf("legacy decrypt: %v", err)
	}
	want, _ := DecodeHex([]byte("1CC66F25F257ADAF52D96D6E45389816"))
	if !bytes.Equal(got, want) {
		t.Fatalf("legacy decrypt got=%X want=%X", got, want)
	}
	if !bytes.Equal(NewLegacy().Encrypt([]byte("hello"), key), enc) {
		t.Fatalf("mix table must not affect Encrypt")
	}
	if New().WithMix(LegacyMix).Mix() != LegacyMix {
		t.Fatalf("WithMix did not install table")
	}
}

func TestCipherConcurrentUse(t *testing.T) {
	testlog.Start(t)
	legacy := NewLegacy()
	key := []byte("concurrent")
	enc := Encrypt([]byte("payload"), key)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, _ = legacy.Decrypt(enc, key)
				dec, err := Decrypt(enc, key)
				if err != nil || string(dec) != "payload" {
					t.Errorf("concurrent decrypt got=%q err=%v", dec, err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestXorSelfInverse(t *testing.T) {
	testlog.Start(t)
	rng := rand.New(rand.NewSource(9))
	for i := 0; i < 100; i++ {
		ra := make([]byte, BlockSize)
		rb := make([]byte, BlockSize)
		rng.Read(ra)
		rng.Read(rb)
		a, b := EncodeHex(ra), EncodeHex(rb)
		ab, err := Xor(a, b)
		if err != nil {
			t.Fatalf("xor: %v", err)
		}
		back, err := Xor(a, ab)
		if err != nil {
			t.Fatalf("xor: %v", err)
		}
		if !bytes.Equal(back, b) {
			t.Fatalf("xor not self-inverse: got=%s want=%s", back, b)
		}
	}
	got, _ := Xor([]byte("ffffffffffffffffffffffffffffffff"), []byte("0F0F0F0F0F0F0F0F0F0F0F0F0F0F0F0F"))
	if string(got) != "F0F0F0F0F0F0F0F0F0F0F0F0F0F0F0F0" {
		t.Fatalf("unexpected xor=%s", got)
	}
}

func TestCryptoErrors(t *testing.T) {
	testlog.Start(t)
	if _, err := Xor([]byte("abc"), []byte("0F0F0F0F0F0F0F0F0F0F0F0F0F0F0F0F")); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength, got %v", err)
	}
	if _, err := Xor([]byte("zz0F0F0F0F0F0F0F0F0F0F0F0F0F0F0F"), []byte("0F0F0F0F0F0F0F0F0F0F0F0F0F0F0F0F")); !errors.Is(err, ErrInvalidHex) {
		t.Fatalf("expected ErrInvalidHex, got %v", err)
	}
	if _, err := Decrypt([]byte("ABCD"), []byte("k")); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength, got %v", err)
	}
	if _, err := DigestEncrypt([]byte("00"), []byte("k")); !errors.Is(err, ErrCrypto) {
		t.Fatalf("expected ErrCrypto, got %v", err)
	}
	if _, err := DecodeHex([]byte("0g")); !errors.Is(err, ErrInvalidHex) {
		t.Fatalf("expected ErrInvalidHex, got %v", err)
	}
	if _, err := DecodeHex([]byte("abc")); !errors.Is(err, ErrCrypto) {
		t.Fatalf("expected ErrCrypto for odd length, got %v", err)
	}
}

func TestHexHelpers(t *testing.T) {
	testlog.Start(t)
	if got := EncodeHex([]byte{0x00, 0xab, 0x7f}); string(got) != "00AB7F" {
		t.Fatalf("unexpected hex=%s", got)
	}
	got, err := DecodeHex([]byte("00aB7f"))
	if err != nil || !bytes.Equal(got, []byte{0x00, 0xab, 0x7f}) {
		t.Fatalf("decode got=%x err=%v", got, err)
	}
	if got := MD5Hex([]byte("pass"), []byte("word")); string(got) != string(MD5Hex([]byte("password"))) {
		t.Fatalf("MD5Hex should hash the concatenation")
	}
	if got := MD5Hex([]byte("password")); string(got) != "5F4DCC3B5AA765D61D8327DEB882CF99" {
		t.Fatalf("unexpected md5=%s", got)
	}
}

func TestDecryptStripsTrailingNUL(t *testing.T) {
	testlog.Start(t)
	key := []byte("key")
	dec, err := Decrypt(Encrypt([]byte("ab\x00\x00"), key), key)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if string(dec) != "ab" {
		t.Fatalf("expected trailing NULs stripped, got %q", dec)
	}
	dec, err = Decrypt(Encrypt([]byte("a\x00b"), key), key)
	if err != nil || string(dec) != "a\x00b" {
		t.Fatalf("inner NUL must survive, got %q err=%v", dec, err)
	}
}
