package retreat

// oracleTableB64 is the Knight Retreat Oracle table (spec.md §4.3.1): for
// every knight-legal (origin, attack-target) pair, the set of
// (retreatSquare, cost) options reachable from origin on an otherwise empty
// board, cost capped at 7. Generated offline by enumerating every such pair
// and running breadth-first search from origin over knight moves; gzipped
// and base64-encoded here as a compile-time constant per the oracle's
// storage format.
//
// Binary layout before compression (big-endian):
//   uint16 entryCount
//   entryCount * {
//     uint16 key    // (originFile<<9)|(originRank<<6)|(attackFile<<3)|attackRank
//     uint8  count
//     count * uint16 option  // (square.file<<6)|(square.rank<<3)|cost
//   }
const oracleTableB64 = 	"H4sIAAAAAAACAzWWf0ydZxXHz3nve96f917qJZoK0XSQLR1kpkI0FaJpqNEGFiWwKIFFyWXZyGWZhC5KwGhtZ8S2Rka7yKCLDLqM" +
	"QZdVqLHCjLV1pqPWdLd26W7t0t2uS0fXpVJnKnXGc87z3L/4fk4C7/t8v9/z8GIrRAQA2yGGByEDnzCwW9DJEGyDPdACe6HN+bSB" +
	"k4KOQ5BgjBja3AqCXXAK9sEKjLn3KKAj6CKBw39tFzTDPpefYyWMeVUEJzABZzCCvHe/AjYJeiFBEz/nBD/0jMdvYCXkgxpCwO0Y" +
	"YzNmgs8b2C0Y8Fvv5ocCrGAc8OtYiZmojnAb7sEW3Itt0ZcMnBSM+Dwn+aHbMMKWqIpKEtuSDYS78BTuwxUcS95D6PBzdvFD9yX5" +
	"DazEsfT9hE38107gfjyT5udYiXloIQjYmXJogwpoM7BXsVV8azIDp51gB5vRDmPQ6XQaWBF0Okgz0IGznTiMHZxNO3S6XQQjbMYB" +
	"yMOEm1VgCxndbtJ0dOBuMyZKPiNuExnBzz/g8rtZCRNeD8FpjOE8ZqDg5RSwWdDrJQ1RB94OtVeTO+01kxH81uc9PoKVUAj6CAM2" +
	"sBzbsCIYMLBXMOgXe5vMIGhV4yVTDAJ2RwXksTzgw1mJFdFOwh3sczuOYWc0ZGBFMBokDV4HUYfmo2nviNhEFZjB9qiHShI7k8OE" +
	"I5zNAczjRLLbJCdpjySzZAS/9YEkH8FKnEj3Ej/llKZ9Op0jI/h1zqf53azEAuwn2MDZVEInVMEBA2OKT0tyzXYwIrtg0TlI0MoJ" +
	"dMEEZJ1JA3lB51nSsujAGZUYLTq7BCLtVavzFMkPrlcXZN1DBKOcwCQUYNqdUeBEGd3nSTulA3dcYrTojgg0a/1G3Z+YTDMKe8gI" +
	"PsCky4ezEqa9wwTnsBwuYQUUvXkFbBP0XiLtoQ68KQ64hN6owF6t7Dnv55q2lu+ct4+MYA8ueWyIlVAMjhBu4NQqsROrgkUDY4LB" +
	"b0jXXwfBrERvMRhnkPD5pBuCp7UHUksGjkQFFLAyYKusxKroGGErJ92FE5iNlg3kBaPfk3ZXB9FRqYvFaEog0pq3Rs9qd7SwrRHH" +
	"qAIrsCs6TCWJ2eSrhKNclUks4HTyuLRKqsyj5KxAs9Z8NPm8qVhGYYaMYA8mk2yIlTid5tc5yS8jZT6XfolUtinMkxF8nktpPpyV" +
	"WISzBBu5KtWQhRr4u4EJxTzpxWQGr8tNYdG5QNDBsffANOScfxgoCDoF0kbrwHlDumPR+ZNARrehw3mN5AcvRQ/k3MsE4xzuDBRh" +
	"zn1XgWvE6BZJy68D9y1piEX3dYE23ZNx96SpS4XCn8kIPsCMy4ezEua8awQXsRKuYhWseh8oYKegt0q6Fjrw3uGGlNB7Q2BMN+ii" +
	"t6J10cZf9P5KRrAHVz02xEpYDW4SbuRwqzGLNcG/DEwIBmukV6AOgvelIRaDt0j+3ekGbQzyWhdpPANHogKKWB2wVVZiTfQRYQfH" +
	"3oPTmIv+a6AgGK2TroUOon9KdyxG7whkdIM6ooIWSRvfEXGMKrAKe6JrVJKYS35MOM5VmcEiziX/I62SXeBR8n2BNt2T8WTRVKxC" +
	"4V0ygj2YSbIhVuJcml9nRa/HSbyYXiWVnQofkBF8nqtpPpyVuIppgk1clVrIQR1+0sC0IJaTXqc6wEiuJ4uJTxF0c+x9MAcDic8Y" +
	"KAomKkkbrYNERrpjMeGQ/l+WbehOeCQ/eCn6YIA+SzDF4c7DKizQvQpcI0aqJi2/DqhCGmKRIoFO3ZMpSpi6VCkQGcHnmSc+nJWw" +
	"4N9HcAWr4QbWwJr/gAJmBf1a0rXQgc/fSPkS+hmBCd2gK36sddHGX/FTZAR7cMNnQ6yEtfBzhJs43FrMYV34BQPTgmE96e2qg7BG" +
	"GmIxrCD5GNAN2hSWa12k8QwciQpYxdqQrbIS6+IvEnZz7H04hwPxlw0UBeNG0rXQQVwn3bEYVwlU6AZ1x5VaJG18d8wxqsAa7Ivv" +
	"o5LEgdRXCKe4KvNcloVUg7RKdoFHqRqBTt2TqVS1qViVwr1kBHswn2JDrMSFMn6dvF6PM3ilrJZUZhUeICP4PDfK+HBW4hp+k2Az" +
	"V6UeBqABv2VgThAfIr1OdYAtcj1ZTHyboJdj3wkLMJT4joFVwcTDpBXXQaJdumMxsZ30a0K2oTfxdZIfUMe/M0TfJZjlcBdhDZbo" +
	"UQWuESM9Qlp+HVCXNMQitQhkdU9m6aumLjUKXyMj+DyLxIezEpb8xwiuYy3cxjpY959QwJyg/zjpWujA5y/IQgn9doFp3aDr/oNa" +
	"F238df8bZAR7cNtnQ6yE9fB7hJs53HocwIbw+wbmBMMnSW9XHYR90hCLYRfJF4hu0ObwIa2LNJ6BI1EBa1gfslVWYkP8A8Jejn0n" +
	"LuBQ/CMDq4LxD0nXQgfxTumOxbhHoEo3qDd+WIukje+NOUYVWIc748eoJHEo9WPCWa7KIpdlKTUsrZJd4FGqTyCrezKbesRUrEbh" +
	"UTKCPVhMsSFW4lIZv05Br8d5vF72OKnMKTxBRvB5bpfx4azEdfwVwRZtWyMM4TOkF6oOcL/cSBYTvybo1xoNw1LiOdIi6yBxUBpi" +
	"MfEU6TeDdL6fXiQ4qpVYhnV6gbTIOqBDkrZF2i+Q084fpZ+a6OsUfkZGwBAs+68Q3JKk4S42+C+TFlkHPn9oFkvoHxSY087f8n+h" +
	"AWtHb/m/JCNgCe6GvyPcovE24lD4W9JbTwfhEUnOYniI5MtAm70lfEZjlCYysG8qYB0b4z8S9muIw7gU/4G0lDqIj0lyFuPDAjXa" +
	"3/74OY1R+9Yfs70qsAGHU69KctK3o3g7dUQgp108mnrBxFin8CIZgUO4XMbPKeqts4i3yl4mlQMKr5ARuIR38U3iZJ6ErRIjnpV1" +
	"tph4m7QFgxJW4oKkYDHxmoDk0AiD9B5pC45LCnRZ7LVIZwXE4GE4Tn8xXjcI+B+StuCOeO3zF9dqCf0LArLZy3DH/5s6KlnDnfDf" +
	"pEu+VRwNb4pVFsPLJP8IsZ7fYGv4pvomieLW+H+kiQ7iMq7HH4lVFuNrAmJWIw7Gb6tvkhsOpj4WqyS543g3dVNAzBrG46n3jG8N" +
	"AmX811bxGC/MMt4p+5BUDgn8HxP9rFYSEQAA"
