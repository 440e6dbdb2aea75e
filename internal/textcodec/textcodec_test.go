package textcodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cases := map[string]string{
		"empty":       "",
		"ascii":       "1 <= arr.size() <= 10^5\n1 <= arr[i] <= 10^9",
		"multibyte":   "数组长度 ≤ 10⁵, naïve café",
		"emoji":       "print('🚀🔥') # 👩‍💻",
		"null byte":   "a\x00b",
		"code":        "#include <iostream>\nusing namespace std;\nint main() { return 0; }",
		"whitespaces": "  \t leading and trailing \n ",
	}

	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			decoded, err := Decode(Encode(text))
			require.NoError(t, err)
			assert.Equal(t, text, decoded)
		})
	}
}

func TestEncodeMatchesBrowserForm(t *testing.T) {
	// btoa(unescape(encodeURIComponent("é"))) in a browser.
	assert.Equal(t, "w6k=", Encode("é"))
	assert.Equal(t, "aGVsbG8=", Encode("hello"))
}

func TestDecodeIgnoresWhitespace(t *testing.T) {
	decoded, err := Decode("aGVs\nbG8=")
	require.NoError(t, err)
	assert.Equal(t, "hello", decoded)
}

func TestDecodeRejectsInvalidInput(t *testing.T) {
	_, err := Decode("not base64!")
	assert.Error(t, err)

	// "/w==" is a single 0xFF byte.
	_, err = Decode("/w==")
	assert.ErrorIs(t, err, ErrNotUTF8)
}

func TestDecodeOrRawFallsBack(t *testing.T) {
	assert.Equal(t, "hello", DecodeOrRaw("aGVsbG8="))
	assert.Equal(t, "plain text, never encoded", DecodeOrRaw("plain text, never encoded"))
	assert.Equal(t, "/w==", DecodeOrRaw("/w=="))
	assert.Equal(t, "", DecodeOrRaw(""))
}
