// Package password verifies resource owner credentials for the password grant.
//
// Hashes are argon2id PHC strings:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// bcrypt hashes ("$2a$", "$2b$", "$2y$") are accepted on verification so user tables
// migrated from older systems keep working; [Argon2.NeedsRehash] reports them for
// upgrade.
package password
