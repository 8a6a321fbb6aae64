package order

// GeneratePasswordFunc exposes the password generator to the external tests.
var GeneratePasswordFunc = &generatePasswordFunc
