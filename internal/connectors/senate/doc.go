// Package senate fetches U.S. Senate roll-call votes from the LIS XML
// feed. Members are identified by LIS member ID ("S354").
package senate
