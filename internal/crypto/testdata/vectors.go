package testdata

// TestVector contains known input/output pairs for the legacy scheme.
// Ciphertexts were produced independently with
// `openssl enc -<alg>-ecb -K <sha1(secret) truncated> -nosalt | base64`.
type TestVector struct {
	Name       string
	Secret     string
	Cipher     string
	Key        string // Hex
	Plaintext  string
	Ciphertext string // Base64
}

// Vectors contains test vectors for legacy crypto operations.
var Vectors = []TestVector{
	{
		Name:       "AES single block",
		Secret:     "secret123",
		Cipher:     "AES",
		Key:        "f2b14f68eb995facb3a1c35287b778d5",
		Plaintext:  "hunter2",
		Ciphertext: "QuB2Wr4KrhyPMq7Nrexz5g==",
	},
	{
		Name:       "AES empty plaintext is one padding block",
		Secret:     "secret123",
		Cipher:     "AES",
		Key:        "f2b14f68eb995facb3a1c35287b778d5",
		Plaintext:  "",
		Ciphertext: "SHKFuFVmLw5MV4BC6Ew8JQ==",
	},
	{
		Name:       "AES exact block adds a full padding block",
		Secret:     "secret123",
		Cipher:     "AES",
		Key:        "f2b14f68eb995facb3a1c35287b778d5",
		Plaintext:  "0123456789abcdef",
		Ciphertext: "znVJlOEcbDxuqNgUlYn5aUhyhbhVZi8OTFeAQuhMPCU=",
	},
	{
		Name:       "DES single block",
		Secret:     "secret123",
		Cipher:     "DES",
		Key:        "f2b14f68eb995fac",
		Plaintext:  "hunter2",
		Ciphertext: "mTivqfSko3Q=",
	},
}
