// Package cli implements the interactive client: a read-eval-print loop
// that turns short commands into line protocol exchanges, prints the
// replies and keeps downloaded photos under the configured data directory.
//
// Commands
//
//	Not logged in:
//	  - help                         show available commands
//	  - login <id> | signup <id>     authenticate
//	  - exit | quit                  leave the program
//
//	Logged in:
//	  - post <text>                  add a post to your profile
//	  - follow <id> | unfollow <id>  manage follows
//	  - respond <id> <1|2|3>         answer a follow request
//	  - notifications                read notifications
//	  - profile <id>                 show a followed client's profile
//	  - upload <path>                upload a photo (descriptions are prompted)
//	  - search <file> <en|gr>        find a photo among followed clients
//	  - ask_photo <owner> <file>     request permission to download
//	  - permit <id> <file> <yes|no>  answer a photo request
//	  - details <owner> <file>       show photo details
//	  - download <file> <owner>      download a photo
//	  - repost <owner>               repost (content and comment are prompted)
//	  - ask_comment <id> <text>      ask to comment on a client's posts
//	  - approve <id> <yes|no> <text> answer a comment request
//	  - comment <id> <text>          comment on a client's post
//	  - language <en|gr>             set the preferred language
//	  - sync                         normalize your timelines on the server
//	  - raw <line>                   send a protocol line as is
package cli
