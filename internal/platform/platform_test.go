package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkers(t *testing.T) {
	assert.Equal(t, "<?= ScriptApp.getService().getUrl() ?>", InlineExpression(" ScriptApp.getService().getUrl()"))
	assert.Equal(t, "<?!= include('style-main'); ?>", UnescapedInclude("style-main"))
}

func TestIsExpression(t *testing.T) {
	assert.True(t, IsExpression("<?= Session.getEffectiveUser().getEmail()?>"))
	assert.True(t, IsExpression(" <?= x ?> "))
	assert.False(t, IsExpression("plain"))
	assert.False(t, IsExpression("<?= unterminated"))
	assert.False(t, IsExpression("<?=?"))
	assert.Equal(t, "Session.getEffectiveUser().getEmail()", ExpressionBody("<?= Session.getEffectiveUser().getEmail()?>"))
}

func TestEncodeManifest(t *testing.T) {
	data, err := Encode(Manifest{
		TimeZone:         "America/Sao_Paulo",
		Dependencies:     map[string]any{},
		ExceptionLogging: "STACKDRIVER",
		RuntimeVersion:   "V8",
		Webapp:           Webapp{ExecuteAs: "USER_ACCESSING", Access: "DOMAIN"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{
	  "timeZone": "America/Sao_Paulo",
	  "dependencies": {},
	  "exceptionLogging": "STACKDRIVER",
	  "runtimeVersion": "V8",
	  "webapp": {"executeAs": "USER_ACCESSING", "access": "DOMAIN"}
	}`, string(data))

	data, err = Encode(Project{ScriptID: "<YOUR_ID_HERE>", RootDir: "./"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"scriptId":"<YOUR_ID_HERE>","rootDir":"./"}`, string(data))
}

func TestEncodeKeepsAngleBrackets(t *testing.T) {
	data, err := Encode(Project{ScriptID: "<YOUR_ID_HERE>", RootDir: "./"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scriptId": "<YOUR_ID_HERE>"`)
}
