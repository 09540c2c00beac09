package i18n

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func clearLocaleEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LANGUAGE", "")
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "")
}

func TestDetectLanguagePriorityAndNormalization(t *testing.T) {
	t.Run("LANGUAGE has highest priority", func(t *testing.T) {
		clearLocaleEnv(t)
		t.Setenv("LANGUAGE", "ko_KR.UTF-8:en_US")
		t.Setenv("LC_ALL", "de_DE.UTF-8")
		require.Equal(t, "ko_KR", detectLanguage())
	})

	t.Run("C and POSIX are skipped", func(t *testing.T) {
		clearLocaleEnv(t)
		t.Setenv("LANGUAGE", "C")
		t.Setenv("LC_ALL", "POSIX")
		t.Setenv("LC_MESSAGES", "fr_FR.UTF-8")
		require.Equal(t, "fr_FR", detectLanguage())
	})

	t.Run("falls back to en", func(t *testing.T) {
		clearLocaleEnv(t)
		require.Equal(t, "en", detectLanguage())
	})
}

func TestTAndNFallbackWhenUninitialized(t *testing.T) {
	old := po
	po = nil
	t.Cleanup(func() { po = old })

	require.Equal(t, "Hello", T("Hello"))
	require.Equal(t, "file", N("file", "files", 1))
	require.Equal(t, "files", N("file", "files", 2))
}

func TestKoreanCatalog(t *testing.T) {
	old := po
	t.Cleanup(func() { po = old })

	Init("ko")
	require.Equal(t, "완료", T("Done"))
	require.Equal(t, "no such message", T("no such message"))
}
