// Package sqlstore serves OAuth clients, scopes and resource owner accounts from
// a SQL database. MySQL is the production target; any driver accepting "?"
// placeholders works. Client secrets are stored as bcrypt hashes.
package sqlstore
