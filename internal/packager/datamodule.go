package packager

import (
	"encoding/json"
	"strings"

	"git.home.luguber.info/inful/next2gas/internal/env"
	ferrors "git.home.luguber.info/inful/next2gas/internal/foundation/errors"
	"git.home.luguber.info/inful/next2gas/internal/jsverify"
	"git.home.luguber.info/inful/next2gas/internal/platform"
)

// DataModule renders the server-side module declaring the public and private
// namespaces. Platform values are written as bare expressions.
func DataModule(appName string, public, private []env.Variable) (string, error) {
	var b strings.Builder
	pub := append([]env.Variable{{Key: platform.AppNameKey, Value: appName}}, public...)
	if err := writeNamespace(&b, platform.PublicNamespace, pub); err != nil {
		return "", err
	}
	b.WriteString("\n")
	if err := writeNamespace(&b, platform.PrivateNamespace, private); err != nil {
		return "", err
	}

	src := b.String()
	if err := jsverify.CheckScript(platform.DataModuleFile, src); err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryInput, "runtime variables do not form a valid module").
			WithContext("file", platform.DataModuleFile).Build()
	}
	return src, nil
}

func writeNamespace(b *strings.Builder, name string, vars []env.Variable) error {
	b.WriteString("const " + name + " = {\n")
	for _, v := range vars {
		key, err := json.Marshal(v.Key)
		if err != nil {
			return err
		}
		val := v.Expression()
		if !v.Platform {
			lit, err := json.Marshal(v.Value)
			if err != nil {
				return err
			}
			val = string(lit)
		}
		b.WriteString("  " + string(key) + ": " + val + ",\n")
	}
	b.WriteString("};\n")
	return nil
}
