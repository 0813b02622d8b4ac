// Package keystore provides OpenPGP signing and verification backends.
//
// Components:
//
//   - Store: secret keys loaded from a keystore location (a GnuPG home
//     directory holding secring.gpg, or a key file, binary or armored)
//   - Signer: detached, armored signatures with one secret key
//   - Resolver: caches Signers by (location, key id)
//   - Keyring: trusted public keys for signature verification, reloadable
//
// Keys are read with golang.org/x/crypto/openpgp. The armored signature
// output carries a single Version header so its preamble matches gpg's.
// Key generation and distribution are out of scope; keystoretest builds
// throwaway keys for tests.
package keystore
