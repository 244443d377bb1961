package utils

import "strings"

// MaskCPF keeps only the last two digits of a CPF for logging.
func MaskCPF(cpf string) string {
	if len(cpf) <= 2 {
		return strings.Repeat("*", len(cpf))
	}
	return strings.Repeat("*", len(cpf)-2) + cpf[len(cpf)-2:]
}

// MaskToken keeps a short prefix of a bearer token so log lines can be correlated
// without exposing the credential.
func MaskToken(token string) string {
	if len(token) <= 8 {
		return "***"
	}
	return token[:6] + "***"
}
