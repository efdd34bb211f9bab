package kvstore

import (
	"github.com/devilmonastery/multioauth/internal/domain/entities"
	"github.com/devilmonastery/multioauth/internal/pkg/textutil"
)

// stringFields and boolFields list the stored fields of a strategy object
func stringFields(c *entities.StrategyConfig) map[string]*string {
	return map[string]*string{
		"name":          &c.Name,
		"authUrl":       &c.AuthURL,
		"tokenUrl":      &c.TokenURL,
		"userRoute":     &c.UserRoute,
		"id":            &c.ClientID,
		"secret":        &c.Secret,
		"scope":         &c.Scope,
		"iconUrl":       &c.IconURL,
		"faIcon":        &c.FaIcon,
		"idKey":         &c.IDKey,
		"loginLabel":    &c.LoginLabel,
		"registerLabel": &c.RegisterLabel,
	}
}

func boolFields(c *entities.StrategyConfig) map[string]*bool {
	return map[string]*bool{
		"enabled":               &c.Enabled,
		"usernameViaEmail":      &c.UsernameViaEmail,
		"forceUsernameViaEmail": &c.ForceUsernameViaEmail,
		"trustEmailVerified":    &c.TrustEmailVerified,
		"syncFullname":          &c.SyncFullname,
		"syncPicture":           &c.SyncPicture,
	}
}

func encodeStrategy(c *entities.StrategyConfig) map[string]string {
	out := make(map[string]string)
	for k, p := range stringFields(c) {
		if *p != "" {
			out[k] = *p
		}
	}
	for k, p := range boolFields(c) {
		out[k] = textutil.FormatBool(*p)
	}
	return out
}

func decodeStrategy(obj map[string]string) *entities.StrategyConfig {
	c := &entities.StrategyConfig{}
	for k, p := range stringFields(c) {
		*p = obj[k]
	}
	for k, p := range boolFields(c) {
		*p = textutil.ParseBool(obj[k])
	}
	return c
}
