// internal/browser/snapshot_test.go
package browser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleDoc = `<!DOCTYPE html>
<html>
<head>
  <title>Checkout</title>
  <style>.hidden { display: none }</style>
  <script>console.log("noise")</script>
</head>
<body>
  <h1>Your cart</h1>
  <p>1 item — free shipping</p>
  <form id="checkout-form">
    <input id="email" name="email" type="email" placeholder="Email address">
    <input name="coupon" type="text">
    <select name="country"><option>NL</option></select>
    <button id="pay" type="submit">Pay now</button>
  </form>
  <a href="/help">Need help?</a>
</body>
</html>`

func TestOutlineKeepsVisibleTextAndElements(t *testing.T) {
	outline := Outline(sampleDoc)

	assert.Contains(t, outline, "Your cart")
	assert.Contains(t, outline, "1 item — free shipping")
	assert.Contains(t, outline, `[input id=email name=email type=email placeholder="Email address"]`)
	assert.Contains(t, outline, `[button id=pay type=submit text="Pay now"]`)
	assert.Contains(t, outline, `[a href=/help text="Need help?"]`)
}

func TestOutlineDropsScriptAndStyle(t *testing.T) {
	outline := Outline(sampleDoc)

	assert.NotContains(t, outline, "console.log")
	assert.NotContains(t, outline, "display: none")
	assert.NotContains(t, outline, "Checkout", "head content should not appear")
}

func TestOutlineCollapsesWhitespace(t *testing.T) {
	outline := Outline("<body><p>  spaced \n\t out  </p></body>")
	assert.Contains(t, outline, "spaced out")
}

func TestOutlineTruncatesLongDocuments(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<body>")
	for i := 0; i < 2000; i++ {
		sb.WriteString("<p>padding paragraph with enough words to matter</p>")
	}
	sb.WriteString("</body>")

	outline := Outline(sb.String())
	assert.LessOrEqual(t, len(outline), maxOutlineLen+len("\n[truncated]"))
	assert.True(t, strings.HasSuffix(outline, "[truncated]"))
}

func TestOutlineHandlesMalformedHTML(t *testing.T) {
	outline := Outline("<div><p>unclosed <b>bold")
	assert.Contains(t, outline, "unclosed")
	assert.Contains(t, outline, "bold")
}
