package classify

import (
	"net/http"
	"testing"

	"reelscraper/pkg/errors"
)

func TestClassifyStatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		statusCode int
		wantBlock  BlockType
		wantJSON   bool
	}{
		{
			name:       "429 is rate limited regardless of body",
			body:       `{"status":"ok"}`,
			statusCode: http.StatusTooManyRequests,
			wantBlock:  BlockRateLimited,
		},
		{
			name:       "401 without captcha markers is login required",
			body:       `{"message":"checkpoint required"}`,
			statusCode: http.StatusUnauthorized,
			wantBlock:  BlockLoginRequired,
		},
		{
			name:       "403 without captcha markers is login required",
			body:       "access denied",
			statusCode: http.StatusForbidden,
			wantBlock:  BlockLoginRequired,
		},
		{
			name:       "403 with captcha markers is captcha",
			body:       "<html>please solve this reCAPTCHA to continue</html>",
			statusCode: http.StatusForbidden,
			wantBlock:  BlockCaptcha,
		},
		{
			name:       "valid JSON with 200 is usable",
			body:       `{"data":{}}`,
			statusCode: http.StatusOK,
			wantBlock:  BlockNone,
			wantJSON:   true,
		},
		{
			name:       "empty JSON object is usable",
			body:       `{}`,
			statusCode: http.StatusOK,
			wantBlock:  BlockNone,
			wantJSON:   true,
		},
		{
			name:       "garbage body is a parse error",
			body:       "%%%not json not html%%%",
			statusCode: http.StatusOK,
			wantBlock:  BlockParseError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify([]byte(tt.body), tt.statusCode)
			if got.BlockType != tt.wantBlock {
				t.Errorf("BlockType = %q, want %q", got.BlockType, tt.wantBlock)
			}
			if got.UsableJSON != tt.wantJSON {
				t.Errorf("UsableJSON = %v, want %v", got.UsableJSON, tt.wantJSON)
			}
			if got.StatusCode != tt.statusCode {
				t.Errorf("StatusCode = %d, want %d", got.StatusCode, tt.statusCode)
			}
		})
	}
}

func TestClassifyHTMLKeywordFamilies(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantBlock BlockType
	}{
		{
			name:      "captcha wins over other families",
			body:      `<!DOCTYPE html><html><body>Please login and complete the captcha</body></html>`,
			wantBlock: BlockCaptcha,
		},
		{
			name:      "two login markers form a login wall",
			body:      `<html><body><form>Enter your password to sign in</form></body></html>`,
			wantBlock: BlockLoginRequired,
		},
		{
			name:      "single login marker is not a login wall",
			body:      `<html><body><a href="/accounts">login</a> suspicious activity detected</body></html>`,
			wantBlock: BlockChallenge,
		},
		{
			name:      "challenge page",
			body:      `<html><body>verify your identity</body></html>`,
			wantBlock: BlockChallenge,
		},
		{
			name:      "blocked page",
			body:      `<html><body>Your account has been banned</body></html>`,
			wantBlock: BlockBlocked,
		},
		{
			name:      "html with no markers is unknown html",
			body:      `<html><body><h1>Welcome</h1></body></html>`,
			wantBlock: BlockUnknownHTML,
		},
		{
			name:      "doctype with leading whitespace",
			body:      "\n\t  <!doctype html><html><body>captcha</body></html>",
			wantBlock: BlockCaptcha,
		},
		{
			name:      "BOM prefixed html",
			body:      "\xEF\xBB\xBF<html><body>verify your account</body></html>",
			wantBlock: BlockChallenge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify([]byte(tt.body), http.StatusOK)
			if got.BlockType != tt.wantBlock {
				t.Errorf("BlockType = %q, want %q", got.BlockType, tt.wantBlock)
			}
			if got.UsableJSON {
				t.Error("HTML body must never be usable JSON")
			}
		})
	}
}

func TestIsBlocked(t *testing.T) {
	blocked := []BlockType{BlockRateLimited, BlockLoginRequired, BlockCaptcha, BlockChallenge, BlockBlocked}
	for _, bt := range blocked {
		if !(Classification{BlockType: bt}).IsBlocked() {
			t.Errorf("expected %q to count as blocked", bt)
		}
	}

	notBlocked := []BlockType{BlockNone, BlockUnknownHTML, BlockParseError}
	for _, bt := range notBlocked {
		if (Classification{BlockType: bt}).IsBlocked() {
			t.Errorf("expected %q to not count as blocked", bt)
		}
	}
}

func TestToError(t *testing.T) {
	tests := []struct {
		blockType BlockType
		wantType  errors.ErrorType
	}{
		{BlockRateLimited, errors.ErrorTypeRateLimit},
		{BlockLoginRequired, errors.ErrorTypeLoginRequired},
		{BlockCaptcha, errors.ErrorTypeCaptcha},
		{BlockChallenge, errors.ErrorTypeChallenge},
		{BlockBlocked, errors.ErrorTypeBlocked},
		{BlockUnknownHTML, errors.ErrorTypeParsing},
		{BlockParseError, errors.ErrorTypeParsing},
	}

	for _, tt := range tests {
		c := Classification{BlockType: tt.blockType, StatusCode: 200}
		err := c.ToError()
		if err == nil {
			t.Fatalf("ToError(%q) = nil", tt.blockType)
		}
		if err.Type != tt.wantType {
			t.Errorf("ToError(%q).Type = %q, want %q", tt.blockType, err.Type, tt.wantType)
		}
	}

	if (Classification{BlockType: BlockNone}).ToError() != nil {
		t.Error("BlockNone must map to a nil error")
	}
}
